package echo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestTeardownPostsAuthorizedRequest(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "secret-key", logr.Discard())
	c.Teardown(context.Background(), "player-1", Notification{Server: "s1"})

	require.Equal(t, "secret-key", gotAuth)
	require.Equal(t, "/players/player-1", gotPath)
}

func TestTeardownSwallowsTransportError(t *testing.T) {
	c := New("http://127.0.0.1:0", "key", logr.Discard())
	c.Teardown(context.Background(), "player-1", Notification{Server: "s1"})
}

func TestForwardReturnsTrackerResponseBody(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(server.URL, "secret-key", logr.Discard())
	raw, err := c.Forward(context.Background(), "player-1", Notification{Server: "s1"})
	require.NoError(t, err)
	require.Equal(t, "/players/player-1", gotPath)
	require.JSONEq(t, `{"ok":true}`, string(raw))
}

func TestForwardReturnsErrorOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL, "secret-key", logr.Discard())
	_, err := c.Forward(context.Background(), "player-1", Notification{Server: "s1"})
	require.Error(t, err)
}

func TestEnableServerReturnsKey(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`"generated-key"`))
	}))
	defer server.Close()

	c := New(server.URL, "secret-key", logr.Discard())
	key, err := c.EnableServer(context.Background(), "server-1")
	require.NoError(t, err)
	require.Equal(t, "generated-key", key)
	require.Equal(t, "/servers/server-1", gotPath)
	require.Equal(t, http.MethodPost, gotMethod)
}
