package leaderelect

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

func TestIsLeaderDefaultsFalse(t *testing.T) {
	client := fake.NewSimpleClientset()
	e := New(Config{
		Client:    client,
		Namespace: "default",
		Name:      "skynet-reconciler",
		Identity:  "replica-1",
	}, logr.Discard())

	require.False(t, e.IsLeader())
}
