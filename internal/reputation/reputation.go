// Package reputation classifies a client IP as risky via proxycheck.io,
// per spec §4.6.1 step (d)/(e). Transport failures are the caller's concern
// to degrade gracefully on (spec §7's "Reputation / Echo / Webhook" row);
// this package only classifies or returns an error.
package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 5 * time.Second

// Verdict is the risk classification for one IP.
type Verdict struct {
	Proxy bool
	VPN   bool
	Risk  int
}

// IsRisky implements spec §4.6.1(e): proxy&&!vpn, or proxy&&risk>33, or risk>66.
func (v Verdict) IsRisky() bool {
	return (v.Proxy && !v.VPN) || (v.Proxy && v.Risk > 33) || v.Risk > 66
}

// Checker classifies client IPs. The HTTP-backed implementation is the
// production collaborator; tests use a stub satisfying the same interface.
type Checker interface {
	Check(ctx context.Context, ip string) (Verdict, error)
}

// Client queries proxycheck.io/v2.
type Client struct {
	apiKey     string
	httpClient *http.Client
}

func New(apiKey string) *Client {
	return &Client{apiKey: apiKey, httpClient: &http.Client{Timeout: defaultTimeout}}
}

type proxyCheckResponse struct {
	Status  string                        `json:"status"`
	Message string                        `json:"message"`
	IPs     map[string]proxyCheckIPResult `json:"-"`
}

type proxyCheckIPResult struct {
	Proxy    string `json:"proxy"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
	Risk     int    `json:"risk"`
}

// Check queries proxycheck.io for addr and returns its risk verdict.
//
// proxycheck.io flattens each queried IP's fields alongside status/message
// at the response's top level, so the per-IP payload is decoded via a raw
// map rather than proxyCheckResponse.IPs directly.
func (c *Client) Check(ctx context.Context, addr string) (Verdict, error) {
	endpoint := fmt.Sprintf("https://proxycheck.io/v2/%s?vpn=1&risk=1&seen=1&tag=login&key=%s", addr, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verdict{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, err
	}
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Verdict{}, err
	}

	var top proxyCheckResponse
	if v, ok := raw["status"]; ok {
		_ = json.Unmarshal(v, &top.Status)
	}
	if v, ok := raw["message"]; ok {
		_ = json.Unmarshal(v, &top.Message)
	}

	switch top.Status {
	case "ok", "warning":
		ipRaw, ok := raw[addr]
		if !ok {
			if top.Message != "" {
				return Verdict{}, fmt.Errorf("proxycheck: %s", top.Message)
			}
			return Verdict{}, fmt.Errorf("proxycheck: ip %s not found in result", addr)
		}
		var ipResult proxyCheckIPResult
		if err := json.Unmarshal(ipRaw, &ipResult); err != nil {
			return Verdict{}, err
		}
		return Verdict{
			Proxy: ipResult.Proxy == "yes",
			VPN:   ipResult.Type == "VPN",
			Risk:  ipResult.Risk,
		}, nil
	default:
		if top.Message == "" {
			top.Message = "no message"
		}
		return Verdict{}, fmt.Errorf("proxycheck: %s", top.Message)
	}
}

var _ Checker = (*Client)(nil)
