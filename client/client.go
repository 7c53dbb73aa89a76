package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"github.com/pkg/errors"

	"github.com/finvault/finvault/transactions"
	"github.com/finvault/finvault/users"
)

// APIError is a structured error response from the server.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type sessionResponse struct {
	User       *users.Summary `json:"user"`
	Require2FA bool           `json:"require2FA"`
}

// Client talks to the auth server. The session cookie lives in the jar;
// the current AuthState snapshot is replaced, never mutated, under lock.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	state AuthState
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client must
// carry a cookie jar or the session cookie is lost between calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[client.New] cookie jar")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// State returns the current snapshot. The returned value is safe to hold:
// later calls replace the client's snapshot rather than changing this one.
func (c *Client) State() AuthState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(state AuthState) AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	return state
}

type SignupParams struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	EnableTwoFactor bool   `json:"enableTwoFactor"`
}

// Signup registers a new identity. Signing up does not sign in: the state
// stays unauthenticated until the email is verified and a login succeeds.
func (c *Client) Signup(ctx context.Context, p SignupParams) (*users.Summary, error) {
	var resp sessionResponse
	if err := c.post(ctx, "/api/auth/signup", p, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// VerifyEmail submits the signup verification code.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.post(ctx, "/api/auth/verify-email", body, nil)
}

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Captcha  string `json:"captcha"`
	Context  string `json:"context,omitempty"`
}

// Login submits credentials. On success the new snapshot either carries
// the signed-in identity or flags that a 2FA code is still required. On
// failure the snapshot records the error and nothing else.
func (c *Client) Login(ctx context.Context, p LoginParams) (AuthState, error) {
	var resp sessionResponse
	if err := c.post(ctx, "/api/auth/login", p, &resp); err != nil {
		return c.setState(AuthState{Err: err}), err
	}
	return c.setState(stateFromSession(&resp)), nil
}

// Verify2FA submits the emailed login code and, on success, upgrades the
// snapshot to a full session.
func (c *Client) Verify2FA(ctx context.Context, code string) (AuthState, error) {
	var resp sessionResponse
	body := map[string]string{"code": code}
	if err := c.post(ctx, "/api/auth/verify-2fa", body, &resp); err != nil {
		return c.setState(AuthState{Err: err}), err
	}
	return c.setState(stateFromSession(&resp)), nil
}

// Logout clears the local session first, then tells the server. A dead
// server cannot keep the user signed in locally.
func (c *Client) Logout(ctx context.Context) AuthState {
	state := c.setState(AuthState{})
	_ = c.post(ctx, "/api/auth/logout", struct{}{}, nil)
	return state
}

// ForgotPassword requests a reset code. The response is identical whether
// or not the account exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/api/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword submits the reset code with the new password.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{"email": email, "code": code, "newPassword": newPassword}
	return c.post(ctx, "/api/auth/reset-password", body, nil)
}

// Transactions fetches the signed-in user's ledger, newest first.
func (c *Client) Transactions(ctx context.Context) ([]transactions.Transaction, error) {
	var resp struct {
		Transactions []transactions.Transaction `json:"transactions"`
	}
	if err := c.get(ctx, "/api/transactions", &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (c *Client) post(ctx context.Context, path string, body, into any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "[Client.post] marshal body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return errors.Wrap(err, "[Client.post] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, into)
}

func (c *Client) get(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.get] build request")
	}
	return c.do(req, into)
}

func (c *Client) do(req *http.Request, into any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.do] request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Kind = "internal_error"
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if into == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return errors.Wrap(err, "[Client.do] decode response")
	}
	return nil
}
