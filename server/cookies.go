package server

import (
	"net/http"
	"time"

	"github.com/finvault/finvault/token"
)

// SessionCookieName carries the signed session token. Both the pending-2FA
// token and the full session use the same cookie; the token kind tells them
// apart.
const SessionCookieName = "fv_session"

func (s *Server) setSessionCookie(w http.ResponseWriter, rawToken string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    rawToken,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.env != "DEV",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.env != "DEV",
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionFromCookie extracts and verifies the session token from the request.
func (s *Server) sessionFromCookie(r *http.Request) (*token.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, token.ErrInvalidToken
	}
	return s.tokens.Verify(cookie.Value)
}
