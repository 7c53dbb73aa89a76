package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/captcha/verifierfake"
	"github.com/finvault/finvault/client"
	"github.com/finvault/finvault/internal/config"
	"github.com/finvault/finvault/mailer/mailerfake"
	"github.com/finvault/finvault/server"
	"github.com/finvault/finvault/token"
	faketransactionrepo "github.com/finvault/finvault/transactions/repofake"
	fakeuserrepo "github.com/finvault/finvault/users/repofake"
	"github.com/finvault/finvault/verification"
	"github.com/finvault/finvault/verification/redisstore"
)

const (
	testEmail    = "sam@example.com"
	testPassword = "Password123"
)

type testFixture struct {
	client *client.Client
	mail   *mailerfake.FakeMailer
	ts     *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	mail := mailerfake.NewFakeMailer()
	engine, err := verification.NewEngine(redisstore.New(redisClient), mail)
	require.NoError(t, err)

	tokens := token.New(token.NewHMACSigner("client-test-secret"))
	authService, err := auth.NewService(fakeuserrepo.NewFakeUserRepo(), engine, tokens, verifierfake.NewFakeVerifier())
	require.NoError(t, err)

	cfg := &config.Config{AppName: "FinVault", Env: "DEV"}
	srv, err := server.New(cfg, authService, tokens, faketransactionrepo.NewFakeTransactionRepo())
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL)
	require.NoError(t, err)

	return &testFixture{client: c, mail: mail, ts: ts}
}

func (f *testFixture) signup(t *testing.T, twoFactor bool) {
	t.Helper()
	ctx := context.Background()

	_, err := f.client.Signup(ctx, client.SignupParams{
		Email:           testEmail,
		Password:        testPassword,
		Name:            "Sam Doe",
		EnableTwoFactor: twoFactor,
	})
	require.NoError(t, err)

	code, ok := f.mail.LastCode(testEmail, verification.PurposeSignupVerify)
	require.True(t, ok)
	require.NoError(t, f.client.VerifyEmail(ctx, testEmail, code))
}

func login(f *testFixture, ctx context.Context) (client.AuthState, error) {
	return f.client.Login(ctx, client.LoginParams{
		Email:    testEmail,
		Password: testPassword,
		Captcha:  "proof",
	})
}

func TestInitialStateUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)

	state := f.client.State()
	require.False(t, state.Authenticated())
	require.Nil(t, state.Identity)
}

func TestSignupDoesNotSignIn(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	require.False(t, f.client.State().Authenticated())
}

func TestLoginProducesAuthenticatedSnapshot(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	state, err := login(f, context.Background())
	require.NoError(t, err)
	require.True(t, state.Authenticated())
	require.Equal(t, testEmail, state.Identity.Email)
}

func TestSnapshotIsImmutable(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	before := f.client.State()
	_, err := login(f, context.Background())
	require.NoError(t, err)

	// The snapshot taken before login still reads as signed out.
	require.False(t, before.Authenticated())
	require.True(t, f.client.State().Authenticated())
}

func TestLoginFailureRecordsError(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)

	state, err := f.client.Login(context.Background(), client.LoginParams{
		Email:    testEmail,
		Password: "WrongPassword1",
		Captcha:  "proof",
	})
	require.Error(t, err)
	require.False(t, state.Authenticated())
	require.ErrorIs(t, state.Err, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid_credentials", apiErr.Kind)
}

func TestTwoFactorFlow(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, true)
	ctx := context.Background()

	state, err := login(f, ctx)
	require.NoError(t, err)
	require.True(t, state.Require2FA)
	require.False(t, state.Authenticated())

	// Still locked out server-side.
	_, err = f.client.Transactions(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 401, apiErr.Status)

	code, ok := f.mail.LastCode(testEmail, verification.PurposeLogin2FA)
	require.True(t, ok)

	state, err = f.client.Verify2FA(ctx, code)
	require.NoError(t, err)
	require.True(t, state.Authenticated())

	_, err = f.client.Transactions(ctx)
	require.NoError(t, err)
}

func TestLogoutClearsStateEvenWhenServerIsDown(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, false)
	ctx := context.Background()

	_, err := login(f, ctx)
	require.NoError(t, err)
	require.True(t, f.client.State().Authenticated())

	f.ts.Close()

	state := f.client.Logout(ctx)
	require.False(t, state.Authenticated())
	require.False(t, f.client.State().Authenticated())
}
