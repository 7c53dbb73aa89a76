// Package auth orchestrates the signup, login, 2FA and password-reset
// flows. The service owns no state of its own: identities live in the user
// repo, pending codes in the verification engine, and sessions in the
// signed token itself.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/finvault/finvault/captcha"
	"github.com/finvault/finvault/token"
	"github.com/finvault/finvault/users"
	"github.com/finvault/finvault/verification"
)

const (
	// DefaultSessionTTL bounds a full session; there is no server-side
	// revocation list, so expiry is the only hard cutoff.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultPendingTTL bounds the window between password check and 2FA
	// submission.
	DefaultPendingTTL = 10 * time.Minute
)

// Hash of a throwaway password, compared against when the email is unknown
// so both invalid-credential paths cost a bcrypt comparison.
const enumerationDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service is the session gateway: it accepts credentials, proofs and codes,
// and mints session tokens on success.
type Service struct {
	userRepo   users.UserRepo
	codes      *verification.Engine
	tokens     *token.Manager
	captcha    captcha.Verifier
	sessionTTL time.Duration
	pendingTTL time.Duration
	nowFunc    func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = nowFunc
	}
}

// WithSessionTTLs overrides the full-session and pending-2FA token windows.
func WithSessionTTLs(session, pending time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionTTL = session
		s.pendingTTL = pending
	}
}

func NewService(
	userRepo users.UserRepo,
	codes *verification.Engine,
	tokens *token.Manager,
	captchaVerifier captcha.Verifier,
	options ...ServiceOption,
) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] user repo is required")
	}
	if codes == nil {
		return nil, errors.New("[NewService] verification engine is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}
	if captchaVerifier == nil {
		return nil, errors.New("[NewService] captcha verifier is required")
	}

	s := &Service{
		userRepo:   userRepo,
		codes:      codes,
		tokens:     tokens,
		captcha:    captchaVerifier,
		sessionTTL: DefaultSessionTTL,
		pendingTTL: DefaultPendingTTL,
		nowFunc:    time.Now,
	}

	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// SessionTTL returns the full-session token window.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// PendingTTL returns the pending-2FA token window.
func (s *Service) PendingTTL() time.Duration { return s.pendingTTL }

type SignupParams struct {
	Email           string
	Password        string
	Name            string
	EnableTwoFactor bool
}

// Signup creates an unverified identity and issues the signup verification
// code. The account exists even when delivery fails; a resend recovers.
func (s *Service) Signup(ctx context.Context, p SignupParams) (*users.User, error) {
	if err := users.ValidatePasswordStrength(p.Password); err != nil {
		return nil, err
	}

	hash, err := users.HashPassword(p.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] HashPassword")
	}

	user := &users.User{
		ID:               uuid.New().String(),
		Email:            users.NormalizeEmail(p.Email),
		PasswordHash:     hash,
		Name:             p.Name,
		TwoFactorEnabled: p.EnableTwoFactor,
		CreatedAt:        s.nowFunc(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "[Service.Signup] userRepo.Create")
	}

	if err := s.codes.Issue(ctx, user.ID, user.Email, verification.PurposeSignupVerify); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail consumes a signup code and marks the identity verified.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.userRepo.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return verification.ErrNotFound
		}
		return errors.Wrap(err, "[Service.VerifyEmail] GetByEmail")
	}

	if err := s.codes.Check(ctx, user.ID, verification.PurposeSignupVerify, code); err != nil {
		return err
	}

	if err := s.userRepo.SetEmailVerified(ctx, user.ID, true); err != nil {
		return errors.Wrap(err, "[Service.VerifyEmail] SetEmailVerified")
	}
	return nil
}

// ResendSignupCode reissues the signup verification code. Unknown emails
// are answered as success so the endpoint cannot be used for enumeration.
func (s *Service) ResendSignupCode(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "[Service.ResendSignupCode] GetByEmail")
	}
	if user.EmailVerified {
		return nil
	}
	return s.codes.Issue(ctx, user.ID, user.Email, verification.PurposeSignupVerify)
}

// LoginParams carries the credentials, the CAPTCHA proof and the opaque
// client-behavior fingerprint. The fingerprint is an anomaly signal only;
// it never gates the login.
type LoginParams struct {
	Email        string
	Password     string
	CaptchaProof string
	Context      string
	RemoteIP     string
}

// LoginResult is the outcome of a successful credential (and possibly 2FA)
// check. Require2FA and a full session are mutually exclusive.
type LoginResult struct {
	User       *users.User
	Require2FA bool
	Token      string
	TokenKind  token.Kind
}

// Login validates the CAPTCHA proof and the credentials. When 2FA is
// enabled it issues a login code and a pending-2FA token instead of a full
// session. Unknown-email and wrong-password failures are indistinguishable.
func (s *Service) Login(ctx context.Context, p LoginParams) (*LoginResult, error) {
	if err := s.captcha.Verify(ctx, p.CaptchaProof, p.RemoteIP); err != nil {
		if errors.Is(err, captcha.ErrFailed) {
			return nil, ErrCaptchaFailed
		}
		return nil, errors.Wrap(err, "[Service.Login] captcha.Verify")
	}

	user, err := s.userRepo.GetByEmail(ctx, users.NormalizeEmail(p.Email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Burn a comparable bcrypt check so timing does not reveal
			// whether the email exists.
			users.CheckPasswordHash(p.Password, enumerationDummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !users.CheckPasswordHash(p.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if p.Context != "" {
		log.Info().Str("identity", user.ID).Str("context", p.Context).Msg("login context fingerprint")
	}

	if user.TwoFactorEnabled {
		if err := s.codes.Issue(ctx, user.ID, user.Email, verification.PurposeLogin2FA); err != nil {
			return nil, err
		}
		partial, err := s.tokens.Issue(user.ID, token.KindPending2FA, s.pendingTTL)
		if err != nil {
			return nil, errors.Wrap(err, "[Service.Login] tokens.Issue pending")
		}
		return &LoginResult{User: user, Require2FA: true, Token: partial, TokenKind: token.KindPending2FA}, nil
	}

	return s.openFullSession(ctx, user)
}

// Verify2FA upgrades a pending-2FA token into a full session once the
// emailed code checks out. Only a pending token is accepted here; a full
// session resubmitted to this step is rejected outright.
func (s *Service) Verify2FA(ctx context.Context, partialToken, code string) (*LoginResult, error) {
	session, err := s.tokens.Verify(partialToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if session.Kind != token.KindPending2FA {
		return nil, ErrUnauthorized
	}

	if err := s.codes.Check(ctx, session.IdentityID, verification.PurposeLogin2FA, code); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, session.IdentityID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Verify2FA] GetByID")
	}
	return s.openFullSession(ctx, user)
}

// Resend2FACode reissues the login code for the holder of a pending token.
func (s *Service) Resend2FACode(ctx context.Context, partialToken string) error {
	session, err := s.tokens.Verify(partialToken)
	if err != nil {
		return ErrUnauthenticated
	}
	if session.Kind != token.KindPending2FA {
		return ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, session.IdentityID)
	if err != nil {
		return errors.Wrap(err, "[Service.Resend2FACode] GetByID")
	}
	return s.codes.Issue(ctx, user.ID, user.Email, verification.PurposeLogin2FA)
}

// ForgotPassword issues a reset code when the email is known, and answers
// identically either way. Even a delivery failure is swallowed here: any
// distinct response would reveal that the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "[Service.ForgotPassword] GetByEmail")
	}

	if err := s.codes.Issue(ctx, user.ID, user.Email, verification.PurposePasswordReset); err != nil {
		if errors.Is(err, verification.ErrDeliveryFailed) {
			log.Warn().Str("identity", user.ID).Msg("reset code delivery failed; code remains valid for resend")
			return nil
		}
		return err
	}
	return nil
}

// ResetPassword consumes a reset code and applies exactly one password
// update. Any pending login-2FA code is dropped alongside: it was issued
// against the credentials that just changed.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return verification.ErrNotFound
		}
		return errors.Wrap(err, "[Service.ResetPassword] GetByEmail")
	}

	if err := s.codes.Check(ctx, user.ID, verification.PurposePasswordReset, code); err != nil {
		return err
	}

	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Service.ResetPassword] HashPassword")
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return errors.Wrap(err, "[Service.ResetPassword] UpdatePassword")
	}

	if err := s.codes.Cancel(ctx, user.ID, verification.PurposeLogin2FA); err != nil {
		log.Err(err).Str("identity", user.ID).Msg("failed to drop pending login code after reset")
	}
	return nil
}

// SetTwoFactor toggles email 2FA for the identity. Takes effect on the next
// login; the current session is untouched.
func (s *Service) SetTwoFactor(ctx context.Context, id string, enabled bool) error {
	if err := s.userRepo.SetTwoFactorEnabled(ctx, id, enabled); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUnauthenticated
		}
		return errors.Wrap(err, "[Service.SetTwoFactor] SetTwoFactorEnabled")
	}
	return nil
}

// Identity resolves a user by id, for callers that already hold a verified
// session.
func (s *Service) Identity(ctx context.Context, id string) (*users.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "[Service.Identity] GetByID")
	}
	return user, nil
}

func (s *Service) openFullSession(ctx context.Context, user *users.User) (*LoginResult, error) {
	full, err := s.tokens.Issue(user.ID, token.KindFullSession, s.sessionTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.openFullSession] tokens.Issue")
	}

	if err := s.userRepo.SetLastLogin(ctx, user.ID, s.nowFunc()); err != nil {
		log.Err(err).Str("identity", user.ID).Msg("failed to stamp last login")
	}

	return &LoginResult{User: user, Token: full, TokenKind: token.KindFullSession}, nil
}
