// Package echo forwards best-effort teardown notifications to an external
// session-echo tracker, per spec §4.6.6 and §6's echo passthrough routes.
// Failures are logged and swallowed: this collaborator is advisory only.
package echo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const defaultTimeout = 5 * time.Second

// Notification mirrors the payload the echo passthrough route accepts.
type Notification struct {
	IP       string `json:"ip,omitempty"`
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
}

// Client posts teardown notifications to an external echo tracker.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
	log        logr.Logger
}

func New(endpoint, key string, log logr.Logger) *Client {
	return &Client{endpoint: endpoint, key: key, httpClient: &http.Client{Timeout: defaultTimeout}, log: log}
}

// Teardown posts a best-effort notification for player; any failure is
// logged and discarded rather than propagated to the caller.
func (c *Client) Teardown(ctx context.Context, player string, notification Notification) {
	body, err := json.Marshal(notification)
	if err != nil {
		c.log.Error(err, "marshal echo teardown payload failed", "player", player)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/players/"+player, bytes.NewReader(body))
	if err != nil {
		c.log.Error(err, "build echo teardown request failed", "player", player)
		return
	}
	req.Header.Set("Authorization", c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error(err, "echo teardown request failed", "player", player)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.log.Info("echo teardown returned non-2xx", "player", player, "status", resp.StatusCode)
	}
}

// Forward synchronously relays a caller-supplied notification for player
// and returns the tracker's raw JSON response, per the `POST
// /api/players/{uuid}/echo` passthrough route. Unlike Teardown this is not
// best-effort: the caller surfaces the error as a 502.
func (c *Client) Forward(ctx context.Context, player string, notification Notification) (json.RawMessage, error) {
	body, err := json.Marshal(notification)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/players/"+player, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return raw, fmt.Errorf("echo tracker returned status %d", resp.StatusCode)
	}
	return raw, nil
}

// EnableServer mints a tracking key for server from the echo tracker, per
// `GET /api/servers/{uuid}/echo/enable`.
func (c *Client) EnableServer(ctx context.Context, server string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/servers/"+server, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var key string
	if err := json.NewDecoder(resp.Body).Decode(&key); err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("echo tracker returned status %d", resp.StatusCode)
	}
	return key, nil
}
