package server

func (s *Server) initRoutes() {
	// SIGNUP
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResendCode, ChainMiddleware(s.ResendCodeHandler(), s.APIMiddleware()...))

	// LOGIN
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVerify2FA, ChainMiddleware(s.Verify2FAHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResend2FA, ChainMiddleware(s.Resend2FAHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCurrentIdentity, ChainMiddleware(s.CurrentIdentityHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteHandler("PUT "+RouteTwoFactor, ChainMiddleware(s.SetTwoFactorHandler(), s.APIMiddleware(s.RequireSession)...))

	// PASSWORD MANAGEMENT
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))

	// TRANSACTIONS (full session only)
	s.RegisterRouteHandler("GET "+RouteTransactions, ChainMiddleware(s.ListTransactionsHandler(), s.APIMiddleware(s.RequireSession)...))
	s.RegisterRouteHandler("POST "+RouteTransactions, ChainMiddleware(s.CreateTransactionHandler(), s.APIMiddleware(s.RequireSession)...))
}
