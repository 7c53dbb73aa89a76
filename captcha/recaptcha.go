package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const siteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var _ Verifier = (*ReCaptcha)(nil)

// ReCaptcha verifies proofs against Google's siteverify endpoint.
type ReCaptcha struct {
	secret   string
	endpoint string
	client   *http.Client
}

type ReCaptchaOption func(*ReCaptcha)

// WithEndpoint overrides the siteverify URL (primarily for testing)
func WithEndpoint(endpoint string) ReCaptchaOption {
	return func(r *ReCaptcha) {
		r.endpoint = endpoint
	}
}

func WithHTTPClient(client *http.Client) ReCaptchaOption {
	return func(r *ReCaptcha) {
		r.client = client
	}
}

func NewReCaptcha(secret string, options ...ReCaptchaOption) *ReCaptcha {
	r := &ReCaptcha{
		secret:   secret,
		endpoint: siteVerifyURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (r *ReCaptcha) Verify(ctx context.Context, proof, remoteIP string) error {
	if proof == "" {
		return ErrFailed
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", proof)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[ReCaptcha.Verify] build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "[ReCaptcha.Verify] siteverify request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("[ReCaptcha.Verify] siteverify status %d", resp.StatusCode)
	}

	var body siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errors.Wrap(err, "[ReCaptcha.Verify] decode response")
	}

	if !body.Success {
		return ErrFailed
	}
	return nil
}
