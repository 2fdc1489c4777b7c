// File: internal/user/model.go
package user

import (
	"time"

	"identity_bridge_backend/internal/profile"
)

// ProfileResponse is the client-facing view of a stored profile.
type ProfileResponse struct {
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ProfileURL  string    `json:"profileUrl"`
	IsVerified  bool      `json:"isVerified"`
	IsAdmin     bool      `json:"isAdmin"`
}

// SetAdminRequest is the body of PUT /admin/users/:userId/admin.
// IsAdmin is a pointer so that an explicit false passes the required check.
type SetAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

// ToProfileResponse converts a stored record to its response.
func ToProfileResponse(userID string, rec *profile.Record) ProfileResponse {
	return ProfileResponse{
		UserID:      userID,
		CreatedAt:   rec.CreatedAt,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		ProfileURL:  rec.ProfileURL,
		IsVerified:  rec.IsVerified,
		IsAdmin:     rec.IsAdmin,
	}
}
