// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"identity_bridge_backend/internal/identity"

	"github.com/go-playground/validator/v10"
)

// APIError is the error envelope returned to clients: {"error": Code, "details": Details}.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"-"` // log-only description
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy carrying details; the package-level errors stay untouched.
func (e *APIError) WithDetails(details string) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrBadRequest         = NewAPIError(http.StatusBadRequest, "BadRequest", "The request is invalid.")
	ErrUnauthorized       = NewAPIError(http.StatusUnauthorized, "Unauthorized", "Authentication is required and has failed or has not yet been provided.")
	ErrForbidden          = NewAPIError(http.StatusForbidden, "Forbidden", "You do not have permission to access this resource.")
	ErrNotFound           = NewAPIError(http.StatusNotFound, "NotFound", "The requested resource could not be found.")
	ErrMethodNotAllowed   = NewAPIError(http.StatusMethodNotAllowed, "MethodNotAllowed", "The method is not allowed for the requested URL.")
	ErrInternalServer     = NewAPIError(http.StatusInternalServerError, "InternalError", "An unexpected error occurred on the server.")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "ServiceUnavailable", "The server is currently unable to handle the request.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ToAPIError maps any error onto the response envelope. Login failures keep their
// taxonomy name as the code; anything unclassified becomes InternalError.
func ToAPIError(err error) *APIError {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr
	}
	var idErr *identity.Error
	if errors.As(err, &idErr) {
		status := http.StatusInternalServerError
		if idErr.Kind.ClientCorrectable() {
			status = http.StatusBadRequest
		}
		return &APIError{StatusCode: status, Code: string(idErr.Kind), Message: idErr.Error(), Details: idErr.Details}
	}
	return ErrInternalServer
}

func NewValidationAPIError(details string) *APIError {
	return ErrBadRequest.WithDetails(details)
}

// FormatValidationErrors flattens validator.ValidationErrors into a single details string.
func FormatValidationErrors(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("The %s field is required.", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("The %s field may not be greater than %s characters.", field, e.Param()))
		case "printascii":
			msgs = append(msgs, fmt.Sprintf("The %s field must contain printable ASCII only.", field))
		default:
			msgs = append(msgs, fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", e.Field(), e.Tag()))
		}
	}
	return strings.Join(msgs, " ")
}
