package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/captcha"
	"github.com/finvault/finvault/users"
	"github.com/finvault/finvault/verification"
)

const maxBodyBytes = 1 << 20 // 1 MiB

const kindInternal = "internal_error"

// errorBody is the wire shape of every error response.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorMapping struct {
	status int
	kind   string
}

// errorKinds maps service sentinels onto wire codes and statuses. Anything
// not listed here is an internal error and its detail stays server-side.
var errorKinds = []struct {
	sentinel error
	errorMapping
}{
	{auth.ErrCaptchaFailed, errorMapping{http.StatusBadRequest, "captcha_failed"}},
	{auth.ErrInvalidCredentials, errorMapping{http.StatusUnauthorized, "invalid_credentials"}},
	{auth.ErrEmailTaken, errorMapping{http.StatusConflict, "email_taken"}},
	{auth.ErrUnauthenticated, errorMapping{http.StatusUnauthorized, "unauthenticated"}},
	{auth.ErrUnauthorized, errorMapping{http.StatusForbidden, "unauthorized"}},
	{users.ErrWeakPassword, errorMapping{http.StatusBadRequest, "weak_password"}},
	{captcha.ErrFailed, errorMapping{http.StatusBadRequest, "captcha_failed"}},
	{verification.ErrNotFound, errorMapping{http.StatusBadRequest, "code_not_found"}},
	{verification.ErrExpired, errorMapping{http.StatusBadRequest, "code_expired"}},
	{verification.ErrMismatch, errorMapping{http.StatusBadRequest, "code_mismatch"}},
	{verification.ErrLocked, errorMapping{http.StatusBadRequest, "code_locked"}},
	{verification.ErrDeliveryFailed, errorMapping{http.StatusBadGateway, "delivery_failed"}},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	for _, m := range errorKinds {
		if errors.Is(err, m.sentinel) {
			writeJSON(w, m.status, errorBody{Kind: m.kind, Message: m.sentinel.Error()})
			return
		}
	}
	log.Err(err).Msg("unhandled service error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Kind: kindInternal, Message: "internal error"})
}

func decodeJSON(r *http.Request, into any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(into); err != nil {
		return errors.Wrap(err, "[decodeJSON] decode request body")
	}
	return nil
}

// writeBadRequest reports a malformed or incomplete request body.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Kind: "bad_request", Message: message})
}
