package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/captcha"
	"github.com/finvault/finvault/captcha/verifierfake"
	"github.com/finvault/finvault/mailer/mailerfake"
	"github.com/finvault/finvault/token"
	"github.com/finvault/finvault/users"
	fakeuserrepo "github.com/finvault/finvault/users/repofake"
	"github.com/finvault/finvault/verification"
	"github.com/finvault/finvault/verification/redisstore"
)

const (
	secretStr        = "test-signing-secret"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
	testUserName     = "John Doe"
	testCaptchaProof = "captcha-proof"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	mail     *mailerfake.FakeMailer
	captcha  *verifierfake.FakeVerifier
	tokens   *token.Manager
	service  *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &testFixture{
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		mail:     mailerfake.NewFakeMailer(),
		captcha:  verifierfake.NewFakeVerifier(),
		tokens:   token.New(token.NewHMACSigner(secretStr)),
	}

	engine, err := verification.NewEngine(redisstore.New(client), f.mail)
	require.NoError(t, err)

	service, err := auth.NewService(f.userRepo, engine, f.tokens, f.captcha)
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *testFixture) signup(t *testing.T, twoFactor bool) *users.User {
	t.Helper()

	user, err := f.service.Signup(context.Background(), auth.SignupParams{
		Email:           testUserEmail,
		Password:        testUserPassword,
		Name:            testUserName,
		EnableTwoFactor: twoFactor,
	})
	require.NoError(t, err)
	return user
}

func (f *testFixture) login(t *testing.T) (*auth.LoginResult, error) {
	t.Helper()

	return f.service.Login(context.Background(), auth.LoginParams{
		Email:        testUserEmail,
		Password:     testUserPassword,
		CaptchaProof: testCaptchaProof,
	})
}

func TestSignupCreatesUnverifiedIdentity(t *testing.T) {
	f := setupTestFixture(t)

	user := f.signup(t, false)
	require.False(t, user.EmailVerified)
	require.NotEmpty(t, user.ID)
	require.Equal(t, testUserEmail, user.Email)

	// A verification code went out to the new address.
	_, ok := f.mail.LastCode(testUserEmail, verification.PurposeSignupVerify)
	require.True(t, ok)
}

func TestSignupNormalizesEmail(t *testing.T) {
	f := setupTestFixture(t)

	user, err := f.service.Signup(context.Background(), auth.SignupParams{
		Email:    "  John.Doe@Example.COM ",
		Password: testUserPassword,
		Name:     testUserName,
	})
	require.NoError(t, err)
	require.Equal(t, testUserEmail, user.Email)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	_, err := f.service.Signup(context.Background(), auth.SignupParams{
		Email:    testUserEmail,
		Password: testUserPassword,
		Name:     "Somebody Else",
	})
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestSignupWeakPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Signup(context.Background(), auth.SignupParams{
		Email:    testUserEmail,
		Password: "short",
		Name:     testUserName,
	})
	require.ErrorIs(t, err, users.ErrWeakPassword)
}

func TestVerifyEmail(t *testing.T) {
	f := setupTestFixture(t)
	user := f.signup(t, false)

	code, _ := f.mail.LastCode(testUserEmail, verification.PurposeSignupVerify)
	require.NoError(t, f.service.VerifyEmail(context.Background(), testUserEmail, code))

	stored, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, stored.EmailVerified)
}

func TestVerifyEmailWrongCode(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	err := f.service.VerifyEmail(context.Background(), testUserEmail, "000000")
	require.ErrorIs(t, err, verification.ErrMismatch)
}

func TestLoginWithoutTwoFactor(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	result, err := f.login(t)
	require.NoError(t, err)
	require.False(t, result.Require2FA)
	require.Equal(t, token.KindFullSession, result.TokenKind)

	session, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, token.KindFullSession, session.Kind)
	require.Equal(t, result.User.ID, session.IdentityID)
}

func TestLoginStampsLastLogin(t *testing.T) {
	f := setupTestFixture(t)
	user := f.signup(t, false)

	_, err := f.login(t)
	require.NoError(t, err)

	stored, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, stored.LastLogin.IsZero())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	// Existing email, wrong password.
	_, errWrongPassword := f.service.Login(context.Background(), auth.LoginParams{
		Email:        testUserEmail,
		Password:     "WrongPassword1",
		CaptchaProof: testCaptchaProof,
	})
	require.ErrorIs(t, errWrongPassword, auth.ErrInvalidCredentials)

	// Unknown email, plausible password.
	_, errUnknownEmail := f.service.Login(context.Background(), auth.LoginParams{
		Email:        "nobody@example.com",
		Password:     testUserPassword,
		CaptchaProof: testCaptchaProof,
	})
	require.ErrorIs(t, errUnknownEmail, auth.ErrInvalidCredentials)

	require.Equal(t, errWrongPassword, errUnknownEmail)
}

func TestLoginCaptchaFailed(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)
	f.captcha.SetError(captcha.ErrFailed)

	_, err := f.login(t)
	require.ErrorIs(t, err, auth.ErrCaptchaFailed)
}

func TestLoginWithTwoFactor(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, true)

	result, err := f.login(t)
	require.NoError(t, err)
	require.True(t, result.Require2FA)
	require.Equal(t, token.KindPending2FA, result.TokenKind)

	// The partial token proves the password check, nothing more.
	session, err := f.tokens.Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, token.KindPending2FA, session.Kind)
}

func TestVerify2FAUpgradesToFullSession(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, true)

	partial, err := f.login(t)
	require.NoError(t, err)

	code, ok := f.mail.LastCode(testUserEmail, verification.PurposeLogin2FA)
	require.True(t, ok)

	full, err := f.service.Verify2FA(context.Background(), partial.Token, code)
	require.NoError(t, err)
	require.False(t, full.Require2FA)
	require.Equal(t, token.KindFullSession, full.TokenKind)
}

func TestVerify2FARejectsFullSessionToken(t *testing.T) {
	f := setupTestFixture(t)
	user := f.signup(t, true)

	fullToken, err := f.tokens.Issue(user.ID, token.KindFullSession, time.Hour)
	require.NoError(t, err)

	_, err = f.service.Verify2FA(context.Background(), fullToken, "123456")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestVerify2FARejectsGarbageToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Verify2FA(context.Background(), "not-a-token", "123456")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestVerify2FAWrongCode(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, true)

	partial, err := f.login(t)
	require.NoError(t, err)

	_, err = f.service.Verify2FA(context.Background(), partial.Token, "000000")
	require.ErrorIs(t, err, verification.ErrMismatch)
}

func TestResend2FACodeSupersedes(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, true)

	partial, err := f.login(t)
	require.NoError(t, err)
	oldCode, _ := f.mail.LastCode(testUserEmail, verification.PurposeLogin2FA)

	require.NoError(t, f.service.Resend2FACode(context.Background(), partial.Token))
	newCode, _ := f.mail.LastCode(testUserEmail, verification.PurposeLogin2FA)

	if oldCode != newCode {
		_, err = f.service.Verify2FA(context.Background(), partial.Token, oldCode)
		require.ErrorIs(t, err, verification.ErrMismatch)
	}

	full, err := f.service.Verify2FA(context.Background(), partial.Token, newCode)
	require.NoError(t, err)
	require.Equal(t, token.KindFullSession, full.TokenKind)
}

func TestSetTwoFactorChangesNextLogin(t *testing.T) {
	f := setupTestFixture(t)
	user := f.signup(t, false)

	require.NoError(t, f.service.SetTwoFactor(context.Background(), user.ID, true))

	result, err := f.login(t)
	require.NoError(t, err)
	require.True(t, result.Require2FA)
}

func TestForgotPasswordUnknownEmailLooksIdentical(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	require.NoError(t, f.service.ForgotPassword(context.Background(), testUserEmail))
	require.NoError(t, f.service.ForgotPassword(context.Background(), "nobody@example.com"))

	// Only the real account got a code.
	_, knownGotCode := f.mail.LastCode(testUserEmail, verification.PurposePasswordReset)
	require.True(t, knownGotCode)
	_, unknownGotCode := f.mail.LastCode("nobody@example.com", verification.PurposePasswordReset)
	require.False(t, unknownGotCode)
}

func TestResetPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	require.NoError(t, f.service.ForgotPassword(context.Background(), testUserEmail))
	code, _ := f.mail.LastCode(testUserEmail, verification.PurposePasswordReset)

	const newPassword = "BrandNewPass9"
	require.NoError(t, f.service.ResetPassword(context.Background(), testUserEmail, code, newPassword))

	// Old password is out, new one works.
	_, err := f.login(t)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.service.Login(context.Background(), auth.LoginParams{
		Email:        testUserEmail,
		Password:     newPassword,
		CaptchaProof: testCaptchaProof,
	})
	require.NoError(t, err)
}

func TestResetPasswordCodeIsSingleUse(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	require.NoError(t, f.service.ForgotPassword(context.Background(), testUserEmail))
	code, _ := f.mail.LastCode(testUserEmail, verification.PurposePasswordReset)

	require.NoError(t, f.service.ResetPassword(context.Background(), testUserEmail, code, "BrandNewPass9"))

	err := f.service.ResetPassword(context.Background(), testUserEmail, code, "AnotherPass77")
	require.ErrorIs(t, err, verification.ErrNotFound)
}
