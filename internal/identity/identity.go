// File: internal/identity/identity.go
package identity

import (
	"strings"
	"unicode/utf8"
)

// maxUserIDLength is the uid limit of Firebase Auth; the other stores accept it as well.
const maxUserIDLength = 128

// VerifiedIdentity is what a provider verifier vouches for. Only SubjectID is stable;
// the rest is display metadata.
type VerifiedIdentity struct {
	Provider   string
	SubjectID  string
	Email      string
	GivenName  string
	FamilyName string
	PictureURL string
}

// DisplayName joins the given and family names.
func (v *VerifiedIdentity) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(v.GivenName) + " " + strings.TrimSpace(v.FamilyName))
}

// DeriveUserID maps a provider subject onto the internal user id "<provider>_<subject>".
func DeriveUserID(provider, subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", Errorf(KindInvalidSubject, "provider subject id is empty")
	}
	if strings.TrimSpace(provider) == "" {
		return "", Errorf(KindInvalidSubject, "provider name is empty")
	}
	// Document stores treat "/" as a path separator.
	if strings.Contains(subject, "/") || strings.Contains(provider, "/") {
		return "", Errorf(KindInvalidSubject, "provider subject id contains '/'")
	}
	if !utf8.ValidString(subject) {
		return "", Errorf(KindInvalidSubject, "provider subject id is not valid UTF-8")
	}
	id := provider + "_" + subject
	if len(id) > maxUserIDLength {
		return "", Errorf(KindInvalidSubject, "derived user id exceeds %d bytes", maxUserIDLength)
	}
	return id, nil
}
