package common

import "errors"

// Error kinds. Lower layers return errors whose chain contains exactly one of
// these, and transports classify with errors.Is.
var (
	ErrorNotFound     = errors.New("not found")
	ErrorValidation   = errors.New("validation error")
	ErrorConflict     = errors.New("conflict")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInternal     = errors.New("internal error")
)

// Error is a classified failure. Kind is one of the sentinel kinds above,
// Code is a stable machine-readable identifier and Message is display text.
type Error struct {
	Kind    error
	Code    string
	Message string
}

// NewError builds an Error of the given kind.
func NewError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns an ErrorValidation-kinded error.
func Validation(code, message string) *Error {
	return NewError(ErrorValidation, code, message)
}

// Conflict returns an ErrorConflict-kinded error.
func Conflict(code, message string) *Error {
	return NewError(ErrorConflict, code, message)
}

// NotFound returns an ErrorNotFound-kinded error.
func NotFound(code, message string) *Error {
	return NewError(ErrorNotFound, code, message)
}

// Unauthorized returns an ErrorUnauthorized-kinded error.
func Unauthorized(code, message string) *Error {
	return NewError(ErrorUnauthorized, code, message)
}

// Forbidden returns an ErrorForbidden-kinded error.
func Forbidden(code, message string) *Error {
	return NewError(ErrorForbidden, code, message)
}

// User-domain errors shared by repositories and services.
var (
	ErrUserNotFound       = NotFound("user_not_found", "user not found")
	ErrEmailTaken         = Conflict("email_taken", "email is already in use")
	ErrInvalidCredentials = Unauthorized("invalid_credentials", "invalid credentials")
	ErrPasswordNotSet     = Unauthorized("password_not_set", "user has no password configured")

	// Bearer token failures.
	ErrMissingToken  = Unauthorized("missing_token", "missing access token")
	ErrInvalidToken  = Unauthorized("invalid_token", "invalid token")
	ErrTokenExpired  = Unauthorized("token_expired", "token expired")
	ErrTokenUserGone = Unauthorized("invalid_token", "token user no longer exists")

	ErrNotAdmin = Forbidden("forbidden", "admin access required")
)

// CodeOf returns the Code of the first *Error in err's chain, or "internal"
// when err is not classified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// MessageOf returns the display text of the first *Error in err's chain and
// false when err is not classified.
func MessageOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}
