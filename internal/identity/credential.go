// File: internal/identity/credential.go
package identity

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CredentialKind tags which verification path an inbound credential takes.
type CredentialKind string

const (
	CredentialCode        CredentialKind = "code"
	CredentialAccessToken CredentialKind = "access_token"
	CredentialSignedToken CredentialKind = "signed_token"
)

// InboundCredential is exactly one populated variant, selected by Kind.
type InboundCredential struct {
	Kind        CredentialKind
	Code        string
	DeviceID    string
	AccessToken string
	SignedToken string
}

// CredentialFields is the JSON body accepted by the login endpoint. Several spellings
// are accepted for each variant because clients have shipped more than one over time.
type CredentialFields struct {
	Code          string `json:"code"`
	DeviceID      string `json:"deviceId"`
	DeviceIDSnake string `json:"device_id"`

	AccessToken      string `json:"accessToken"`
	AccessTokenSnake string `json:"access_token"`

	SignedToken  string `json:"signedToken"`
	IDToken      string `json:"idToken"`
	IDTokenSnake string `json:"id_token"`
}

// ParseCredential decodes a raw request body and normalizes it.
func ParseCredential(body []byte) (*InboundCredential, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, Errorf(KindMissingCredential, "request body is empty")
	}
	var fields CredentialFields
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, NewError(KindMissingCredential, "request body is not a JSON object with string credential fields", err)
	}
	return Normalize(fields)
}

// Normalize classifies the populated fields into one credential variant.
func Normalize(fields CredentialFields) (*InboundCredential, error) {
	code := strings.TrimSpace(fields.Code)
	access := firstNonEmpty(fields.AccessToken, fields.AccessTokenSnake)
	signed := firstNonEmpty(fields.SignedToken, fields.IDToken, fields.IDTokenSnake)

	var present []CredentialKind
	if code != "" {
		present = append(present, CredentialCode)
	}
	if access != "" {
		present = append(present, CredentialAccessToken)
	}
	if signed != "" {
		present = append(present, CredentialSignedToken)
	}

	switch len(present) {
	case 0:
		return nil, Errorf(KindMissingCredential, "one of code, accessToken or signedToken is required")
	case 1:
	default:
		names := make([]string, len(present))
		for i, k := range present {
			names[i] = string(k)
		}
		return nil, Errorf(KindAmbiguousCredential, "exactly one credential is allowed, got %s", strings.Join(names, ", "))
	}

	cred := &InboundCredential{Kind: present[0]}
	switch cred.Kind {
	case CredentialCode:
		cred.Code = code
		cred.DeviceID = firstNonEmpty(fields.DeviceID, fields.DeviceIDSnake)
	case CredentialAccessToken:
		cred.AccessToken = access
	case CredentialSignedToken:
		cred.SignedToken = signed
	}
	return cred, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
