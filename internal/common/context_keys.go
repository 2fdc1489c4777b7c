// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// UserIDKey is the context key for storing the authenticated internal user id
	UserIDKey = "userID"
	// ProfileKey is the context key for the caller's stored profile record
	ProfileKey = "profile"
	// ErrorCodeKey holds the envelope code of an error response, for the access log
	ErrorCodeKey = "errorCode"
)
