package oauthmodel

import (
	"errors"
	"fmt"
)

// ErrorKind is the broad category of a failure.
type ErrorKind string

const (
	// ClientErrorKind covers local precondition failures and unparseable input.
	ClientErrorKind ErrorKind = "client_error"
	// TransportErrorKind covers network and TLS failures.
	TransportErrorKind ErrorKind = "transport_error"
	// ServerErrorKind covers well formed error responses from the server.
	ServerErrorKind ErrorKind = "server_error"
	// TokenValidationErrorKind covers tokens that fail signature, claim or time checks.
	TokenValidationErrorKind ErrorKind = "token_validation_error"
)

// Token validation codes.
const (
	CodeParseError        = "PARSE_ERROR"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeInvalidAudience   = "INVALID_AUDIENCE"
	CodeInvalidTokenClass = "INVALID_TOKEN_CLASS"
	CodeExpiredToken      = "EXPIRED_TOKEN"
	CodeTokenNotYetValid  = "TOKEN_NOT_YET_VALID"
)

// Client and transport codes.
const (
	CodeSSLConnection = "ssl_connection_error"
	CodeSigning       = "signing_error"
)

// Error is the single error type returned by the client. Kind is always set.
// Code is a validation code, the server's OAuth error code, or empty.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Code when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrClient          = &Error{Kind: ClientErrorKind}
	ErrTransport       = &Error{Kind: TransportErrorKind}
	ErrSSLConnection   = &Error{Kind: TransportErrorKind, Code: CodeSSLConnection}
	ErrServer          = &Error{Kind: ServerErrorKind}
	ErrTokenValidation = &Error{Kind: TokenValidationErrorKind}
	ErrSigning         = &Error{Kind: ClientErrorKind, Code: CodeSigning}

	ErrParse             = &Error{Kind: TokenValidationErrorKind, Code: CodeParseError}
	ErrInvalidSignature  = &Error{Kind: TokenValidationErrorKind, Code: CodeInvalidSignature}
	ErrInvalidAudience   = &Error{Kind: TokenValidationErrorKind, Code: CodeInvalidAudience}
	ErrInvalidTokenClass = &Error{Kind: TokenValidationErrorKind, Code: CodeInvalidTokenClass}
	ErrExpiredToken      = &Error{Kind: TokenValidationErrorKind, Code: CodeExpiredToken}
	ErrTokenNotYetValid  = &Error{Kind: TokenValidationErrorKind, Code: CodeTokenNotYetValid}
)

// ClientError builds a client error.
func ClientError(format string, args ...any) *Error {
	return &Error{Kind: ClientErrorKind, Message: fmt.Sprintf(format, args...)}
}

// WrapClientError builds a client error around a cause.
func WrapClientError(err error, format string, args ...any) *Error {
	return &Error{Kind: ClientErrorKind, Message: fmt.Sprintf(format, args...), Err: err}
}

// SigningError reports a failure while signing an outgoing assertion or token.
func SigningError(err error, format string, args ...any) *Error {
	return &Error{Kind: ClientErrorKind, Code: CodeSigning, Message: fmt.Sprintf(format, args...), Err: err}
}

// TransportError wraps a network failure.
func TransportError(err error, format string, args ...any) *Error {
	return &Error{Kind: TransportErrorKind, Message: fmt.Sprintf(format, args...), Err: err}
}

// SSLConnectionError wraps a TLS handshake or certificate verification failure.
func SSLConnectionError(err error, format string, args ...any) *Error {
	return &Error{Kind: TransportErrorKind, Code: CodeSSLConnection, Message: fmt.Sprintf(format, args...), Err: err}
}

// ServerError carries the OAuth error code and description returned by the server.
func ServerError(code, description string) *Error {
	return &Error{Kind: ServerErrorKind, Code: code, Message: description}
}

// TokenValidationError builds a validation error with one of the validation codes.
func TokenValidationError(code string, format string, args ...any) *Error {
	return &Error{Kind: TokenValidationErrorKind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
