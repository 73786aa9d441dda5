package httpapi

import (
	"context"
	"net/http"
	"strings"
)

// PrincipalKind distinguishes the three credential shapes spec §6 accepts
// in the Authorization header.
type PrincipalKind int

const (
	// PrincipalServer identifies a game server pod calling back with its
	// own id ("Server <uuid>"): trusted for server-management and
	// player-lifecycle mutation routes.
	PrincipalServer PrincipalKind = iota
	// PrincipalProxy identifies a proxy pod ("Proxy <uuid>"): trusted for
	// proxy-facing routes (prelogin, proxy-login, playercount, move).
	PrincipalProxy
	// PrincipalPlayer is a bare uuid identifying a self-service caller,
	// restricted to operations on its own uuid.
	PrincipalPlayer
)

// Principal is the authenticated caller stored in the request context by
// Middleware.
type Principal struct {
	Kind PrincipalKind
	ID   string
}

type principalContextKey struct{}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext returns the Principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// Middleware parses the Authorization header into a Principal and stores
// it in the request context, per spec §6: "Server <uuid>", "Proxy <uuid>",
// or a bare uuid. Anything else is rejected with 401.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			RespondError(w, s.log, http.StatusUnauthorized, "missing authorization header")
			return
		}

		var principal Principal
		switch {
		case strings.HasPrefix(header, "Server "):
			principal = Principal{Kind: PrincipalServer, ID: strings.TrimSpace(strings.TrimPrefix(header, "Server "))}
		case strings.HasPrefix(header, "Proxy "):
			principal = Principal{Kind: PrincipalProxy, ID: strings.TrimSpace(strings.TrimPrefix(header, "Proxy "))}
		default:
			principal = Principal{Kind: PrincipalPlayer, ID: header}
		}

		if principal.ID == "" {
			RespondError(w, s.log, http.StatusUnauthorized, "malformed authorization header")
			return
		}

		s.touchAPIKey(r.Context(), principal.ID)

		ctx := NewContext(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// touchAPIKey bumps LastUsed and logs a warning on every use of an
// unrestricted key (spec §3 "an absent group denotes an unrestricted
// key"), when the credential also happens to be a registered ApiKey. Most
// Server/Proxy/player credentials are not, and that's not an error: this
// bookkeeping is additive, never a gate on the request.
func (s *Server) touchAPIKey(ctx context.Context, id string) {
	key, found, err := s.repo.GetAPIKey(ctx, id)
	if err != nil || !found {
		return
	}
	if key.Group == "" {
		s.log.Info("unrestricted API key used", "key", id)
	}
	if err := s.repo.TouchAPIKey(ctx, id); err != nil {
		s.log.Error(err, "touch api key failed", "key", id)
	}
}

// requireSelf rejects a player-kind principal acting on a uuid other than
// its own; server and proxy principals are trusted internal callers and
// always pass.
func requireSelf(p Principal, uuid string) bool {
	if p.Kind != PrincipalPlayer {
		return true
	}
	return p.ID == uuid
}

// authorizeSelf enforces requireSelf for the uuid path parameter, writing
// a 401 and reporting false when a bare-uuid principal targets a
// different player's resource.
func (s *Server) authorizeSelf(w http.ResponseWriter, r *http.Request, uuid string) bool {
	principal, ok := FromContext(r.Context())
	if !ok || !requireSelf(principal, uuid) {
		RespondError(w, s.log, http.StatusUnauthorized, "not authorized for this player")
		return false
	}
	return true
}
