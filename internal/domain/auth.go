package domain

// AuthResult classifies the outcome of one login attempt.
type AuthResult string

const (
	AuthSuccess            AuthResult = "success"
	AuthInvalidCredentials AuthResult = "invalid_credentials"
	AuthCaptchaRequired    AuthResult = "captcha_required"
	AuthTimeout            AuthResult = "timeout"
)

// Terminal reports whether retrying with the same credential is pointless.
func (r AuthResult) Terminal() bool {
	return r == AuthInvalidCredentials
}

type AuthState string

const (
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticating  AuthState = "authenticating"
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateClosed          AuthState = "closed"
)
