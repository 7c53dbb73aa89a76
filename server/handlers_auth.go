package server

import (
	"net/http"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/users"
)

// Responses to forgot-password and resend-code never vary by account
// existence.
const genericCodeSentMessage = "if the account exists, a code has been sent"

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	EnableTwoFactor bool   `json:"enableTwoFactor"`
}

type sessionResponse struct {
	User       *users.Summary `json:"user,omitempty"`
	Require2FA bool           `json:"require2FA"`
}

func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed signup request")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeBadRequest(w, "email and password are required")
			return
		}

		user, err := s.auth.Signup(r.Context(), auth.SignupParams{
			Email:           req.Email,
			Password:        req.Password,
			Name:            req.Name,
			EnableTwoFactor: req.EnableTwoFactor,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{User: user.Summary()})
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed verification request")
			return
		}
		if req.Email == "" || req.Code == "" {
			writeBadRequest(w, "email and code are required")
			return
		}

		if err := s.auth.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
	}
}

func (s *Server) ResendCodeHandler() http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed resend request")
			return
		}

		if err := s.auth.ResendSignupCode(r.Context(), req.Email); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": genericCodeSentMessage})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
	Context  string `json:"context,omitempty"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed login request")
			return
		}

		result, err := s.auth.Login(r.Context(), auth.LoginParams{
			Email:        req.Email,
			Password:     req.Password,
			CaptchaProof: req.Captcha,
			Context:      req.Context,
			RemoteIP:     remoteIP(r),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		if result.Require2FA {
			s.setSessionCookie(w, result.Token, s.auth.PendingTTL())
			writeJSON(w, http.StatusOK, sessionResponse{Require2FA: true})
			return
		}

		s.setSessionCookie(w, result.Token, s.auth.SessionTTL())
		writeJSON(w, http.StatusOK, sessionResponse{User: result.User.Summary()})
	}
}

func (s *Server) Verify2FAHandler() http.HandlerFunc {
	type request struct {
		Code string `json:"code"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed verification request")
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		result, err := s.auth.Verify2FA(r.Context(), cookie.Value, req.Code)
		if err != nil {
			writeError(w, err)
			return
		}

		s.setSessionCookie(w, result.Token, s.auth.SessionTTL())
		writeJSON(w, http.StatusOK, sessionResponse{User: result.User.Summary()})
	}
}

func (s *Server) Resend2FAHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		if err := s.auth.Resend2FACode(r.Context(), cookie.Value); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": genericCodeSentMessage})
	}
}

// LogoutHandler drops the session cookie. The token itself stays valid
// until expiry; there is no server-side revocation list.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

func (s *Server) CurrentIdentityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityIDFromContext(r.Context())
		if !ok {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		user, err := s.auth.Identity(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{User: user.Summary()})
	}
}

func (s *Server) SetTwoFactorHandler() http.HandlerFunc {
	type request struct {
		Enabled bool `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityIDFromContext(r.Context())
		if !ok {
			writeError(w, auth.ErrUnauthenticated)
			return
		}

		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed request")
			return
		}

		if err := s.auth.SetTwoFactor(r.Context(), id, req.Enabled); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"twoFactorEnabled": req.Enabled})
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed request")
			return
		}

		if err := s.auth.ForgotPassword(r.Context(), req.Email); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": genericCodeSentMessage})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	type request struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "malformed reset request")
			return
		}
		if req.Email == "" || req.Code == "" || req.NewPassword == "" {
			writeBadRequest(w, "email, code and newPassword are required")
			return
		}

		if err := s.auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
			writeError(w, err)
			return
		}

		// A reset invalidates whatever session cookie the browser holds.
		s.clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
	}
}

func remoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
