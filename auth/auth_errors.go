package auth

import "github.com/pkg/errors"

var (
	// ErrInvalidCredentials merges unknown-email and wrong-password so the
	// two failure paths are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCaptchaFailed      = errors.New("captcha failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	// ErrUnauthorized means the session was valid but of the wrong kind for
	// the requested operation.
	ErrUnauthorized = errors.New("wrong session kind")
)
