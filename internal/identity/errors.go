// File: internal/identity/errors.go
package identity

import (
	"errors"
	"fmt"
)

// ErrorKind names one entry of the login failure taxonomy. The string value is what
// clients see in the "error" field of the response.
type ErrorKind string

const (
	KindMissingCredential      ErrorKind = "MissingCredential"
	KindAmbiguousCredential    ErrorKind = "AmbiguousCredential"
	KindInvalidSubject         ErrorKind = "InvalidSubject"
	KindProviderExchangeFailed ErrorKind = "ProviderExchangeFailed"
	KindProviderRejected       ErrorKind = "ProviderRejected"
	KindSignatureInvalid       ErrorKind = "SignatureInvalid"
	KindStoreUnavailable       ErrorKind = "StoreUnavailable"
	KindIssuerUnavailable      ErrorKind = "IssuerUnavailable"
)

// ClientCorrectable reports whether a failure of this kind is caused by the inbound
// credential (400) rather than by server-side infrastructure (500).
func (k ErrorKind) ClientCorrectable() bool {
	switch k {
	case KindMissingCredential, KindAmbiguousCredential, KindInvalidSubject,
		KindProviderExchangeFailed, KindProviderRejected, KindSignatureInvalid:
		return true
	default:
		return false
	}
}

// Error is a classified failure from any stage of the login pipeline.
// Details may be shown to clients and must already be redacted; Err is for logs only.
type Error struct {
	Kind    ErrorKind
	Details string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrSignatureInvalid) works
// regardless of details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrMissingCredential      = &Error{Kind: KindMissingCredential}
	ErrAmbiguousCredential    = &Error{Kind: KindAmbiguousCredential}
	ErrInvalidSubject         = &Error{Kind: KindInvalidSubject}
	ErrProviderExchangeFailed = &Error{Kind: KindProviderExchangeFailed}
	ErrProviderRejected       = &Error{Kind: KindProviderRejected}
	ErrSignatureInvalid       = &Error{Kind: KindSignatureInvalid}
	ErrStoreUnavailable       = &Error{Kind: KindStoreUnavailable}
	ErrIssuerUnavailable      = &Error{Kind: KindIssuerUnavailable}
)

// NewError builds a classified error wrapping cause.
func NewError(kind ErrorKind, details string, cause error) *Error {
	return &Error{Kind: kind, Details: details, Err: cause}
}

// Errorf builds a classified error with formatted details and no cause.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Details: fmt.Sprintf(format, args...)}
}

// KindOf returns the taxonomy kind of err, or "" when err is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
