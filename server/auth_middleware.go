package server

import (
	"context"
	"net/http"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/token"
)

type contextKey string

const identityIDKey contextKey = "identityID"

// IdentityIDFromContext returns the identity id placed by RequireSession.
func IdentityIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityIDKey).(string)
	return id, ok
}

// RequireSession guards an endpoint behind a full session. A missing,
// invalid or expired cookie is rejected, and so is a pending-2FA token: a
// password check alone opens nothing.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessionFromCookie(r)
		if err != nil {
			writeError(w, auth.ErrUnauthenticated)
			return
		}
		if session.Kind != token.KindFullSession {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), identityIDKey, session.IdentityID)
		next(w, r.WithContext(ctx))
	}
}
