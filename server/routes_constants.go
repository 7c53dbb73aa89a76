package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Signup & Email Verification
	RouteSignup      = "/api/auth/signup"
	RouteVerifyEmail = "/api/auth/verify-email"
	RouteResendCode  = "/api/auth/resend-code"

	// Login & Logout
	RouteLogin           = "/api/auth/login"
	RouteVerify2FA       = "/api/auth/verify-2fa"
	RouteResend2FA       = "/api/auth/verify-2fa/resend"
	RouteLogout          = "/api/auth/logout"
	RouteCurrentIdentity = "/api/auth/me"
	RouteTwoFactor       = "/api/auth/2fa"

	// Password Management
	RouteForgotPassword = "/api/auth/forgot-password"
	RouteResetPassword  = "/api/auth/reset-password"

	// Transactions
	RouteTransactions = "/api/transactions"
)
