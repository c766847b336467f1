package auth

// ErrorKind categorizes auth failures so callers can decide between
// re-rendering a form and redirecting, without parsing messages.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuth
	KindSecurity
	KindNotFound
)

// Error is a typed, user-renderable failure. Messages are deliberately
// uninformative where enumeration would leak account state.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrMissingCredentials = &Error{Kind: KindValidation, Message: "email and password are required"}
	ErrBadEmail           = &Error{Kind: KindValidation, Message: "invalid email address"}

	// ErrInvalidCredentials covers unknown email, wrong password and
	// inactive account alike.
	ErrInvalidCredentials = &Error{Kind: KindAuth, Message: "invalid email or password"}

	ErrInvalidToken = &Error{Kind: KindSecurity, Message: "invalid security token"}

	// ErrResetTokenInvalid covers expired, already used and never issued.
	ErrResetTokenInvalid = &Error{Kind: KindNotFound, Message: "invalid or expired reset token"}

	// ErrEmailNotFound is only surfaced by the password-reset flow, which
	// intentionally reveals non-existence, unlike login.
	ErrEmailNotFound = &Error{Kind: KindNotFound, Message: "no account with that email"}
)
