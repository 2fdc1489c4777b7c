// File: internal/profile/model.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stored field names; every backend uses these as document keys.
const (
	FieldCreatedAt   = "createdAt"
	FieldEmail       = "email"
	FieldDisplayName = "displayName"
	FieldProfileURL  = "profileUrl"
	FieldIsVerified  = "isVerified"
	FieldIsAdmin     = "isAdmin"
)

// ErrNotFound is returned by Store.Get when no record exists for the user id.
var ErrNotFound = errors.New("profile not found")

// ErrAlreadyExists is returned by a CreateOnly Set when the record is already there.
var ErrAlreadyExists = errors.New("profile already exists")

// Record is the durable profile of one internal user id.
type Record struct {
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	Email       string    `firestore:"email" json:"email"`
	DisplayName string    `firestore:"displayName" json:"displayName"`
	ProfileURL  string    `firestore:"profileUrl" json:"profileUrl"`
	IsVerified  bool      `firestore:"isVerified" json:"isVerified"`
	IsAdmin     bool      `firestore:"isAdmin" json:"isAdmin"`
}

type serverTimestamp struct{}

// ServerTimestamp, used as a field value, asks the store to assign the current time itself.
var ServerTimestamp = serverTimestamp{}

// Fields is a partial record keyed by the Field* names.
type Fields map[string]interface{}

// SetOptions controls how Set treats fields that are not listed.
// Merge=false replaces the whole record; Merge=true leaves unlisted fields as they are
// and creates the record when it is missing. CreateOnly writes only when no record
// exists and fails with ErrAlreadyExists otherwise; it takes precedence over Merge.
type SetOptions struct {
	Merge      bool
	CreateOnly bool
}

// Store is a document store keyed by internal user id.
type Store interface {
	Get(ctx context.Context, userID string) (*Record, error)
	Set(ctx context.Context, userID string, fields Fields, opts SetOptions) error
}

// validate rejects unknown field names and mistyped values.
func (f Fields) validate() error {
	var rec Record
	return f.apply(&rec, time.Time{})
}

// apply copies fields onto rec, resolving ServerTimestamp to now.
func (f Fields) apply(rec *Record, now time.Time) error {
	for name, value := range f {
		var ok bool
		switch name {
		case FieldCreatedAt:
			switch v := value.(type) {
			case serverTimestamp:
				rec.CreatedAt, ok = now, true
			case time.Time:
				rec.CreatedAt, ok = v, true
			}
		case FieldEmail:
			rec.Email, ok = value.(string)
		case FieldDisplayName:
			rec.DisplayName, ok = value.(string)
		case FieldProfileURL:
			rec.ProfileURL, ok = value.(string)
		case FieldIsVerified:
			rec.IsVerified, ok = value.(bool)
		case FieldIsAdmin:
			rec.IsAdmin, ok = value.(bool)
		default:
			return fmt.Errorf("unknown profile field %q", name)
		}
		if !ok {
			return fmt.Errorf("profile field %q has unsupported value type %T", name, value)
		}
	}
	return nil
}
