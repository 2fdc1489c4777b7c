// File: internal/provider/introspect.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"identity_bridge_backend/internal/identity"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// userObjectPaths are the places the provider has been seen to nest the user object,
// tried in order.
var userObjectPaths = []string{"user", "response.user", "response.0", "response", "data.user", "data"}

var (
	subjectFields    = []string{"user_id", "id", "sub"}
	emailFields      = []string{"email"}
	givenNameFields  = []string{"first_name", "given_name"}
	familyNameFields = []string{"last_name", "family_name"}
	pictureFields    = []string{"avatar", "picture", "photo_200", "photo_max"}
)

// IntrospectionVerifier asks the provider's user-info endpoint who an access token belongs to.
type IntrospectionVerifier struct {
	userInfoURL string
	clientID    string
	client      *http.Client
	redactor    *identity.Redactor
	logger      *zap.Logger
}

func NewIntrospectionVerifier(userInfoURL, clientID string, client *http.Client, redactor *identity.Redactor, logger *zap.Logger) *IntrospectionVerifier {
	return &IntrospectionVerifier{
		userInfoURL: userInfoURL,
		clientID:    clientID,
		client:      client,
		redactor:    redactor,
		logger:      logger.Named("IntrospectionVerifier"),
	}
}

// Verify handles the access_token credential variant.
func (v *IntrospectionVerifier) Verify(ctx context.Context, cred *identity.InboundCredential) (*identity.VerifiedIdentity, error) {
	return v.Introspect(ctx, cred.AccessToken)
}

// Introspect resolves accessToken to a verified identity.
func (v *IntrospectionVerifier) Introspect(ctx context.Context, accessToken string) (*identity.VerifiedIdentity, error) {
	endpoint, err := url.Parse(v.userInfoURL)
	if err != nil {
		return nil, identity.NewError(identity.KindProviderExchangeFailed, "user info endpoint is misconfigured", err)
	}
	q := endpoint.Query()
	q.Set("client_id", v.clientID)
	q.Set("access_token", accessToken)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, identity.NewError(identity.KindProviderExchangeFailed, "could not build user info request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		// url.Error embeds the full URL, which carries the access token.
		var uErr *url.Error
		if errors.As(err, &uErr) {
			err = uErr.Err
		}
		v.logger.Error("User info request failed", zap.Error(err))
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "user info endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBodyBytes))
	if err != nil {
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "could not read user info response")
	}
	if !gjson.ValidBytes(body) {
		v.logger.Warn("User info response is not JSON", zap.Int("status", resp.StatusCode))
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "user info endpoint returned status %d with a non-JSON body", resp.StatusCode)
	}

	// An error envelope counts even on HTTP 200.
	if details, ok := errorEnvelope(gjson.ParseBytes(body)); ok {
		v.logger.Warn("Provider rejected access token", zap.Int("status", resp.StatusCode))
		return nil, identity.Errorf(identity.KindProviderRejected, "%s", v.redactor.Redact(details))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "user info endpoint returned status %d", resp.StatusCode)
	}

	user, ok := detectUserObject(gjson.ParseBytes(body))
	if !ok {
		v.logger.Warn("User info response has no recognizable user object")
		return nil, identity.Errorf(identity.KindProviderExchangeFailed, "user info response has no user object")
	}

	subject := firstString(user, subjectFields)
	if subject == "" {
		return nil, identity.Errorf(identity.KindInvalidSubject, "user info response has no user id")
	}

	return &identity.VerifiedIdentity{
		SubjectID:  subject,
		Email:      strings.ToLower(firstString(user, emailFields)),
		GivenName:  firstString(user, givenNameFields),
		FamilyName: firstString(user, familyNameFields),
		PictureURL: firstString(user, pictureFields),
	}, nil
}

// errorEnvelope recognizes {"error": "..."} and {"error": {...}} bodies.
func errorEnvelope(root gjson.Result) (string, bool) {
	e := root.Get("error")
	switch {
	case !e.Exists():
		return "", false
	case e.Type == gjson.String:
		if e.String() == "" {
			return "", false
		}
		if desc := root.Get("error_description").String(); desc != "" {
			return fmt.Sprintf("%s: %s", e.String(), desc), true
		}
		return e.String(), true
	case e.IsObject():
		code := firstString(e, []string{"error_code", "code", "error"})
		msg := firstString(e, []string{"error_msg", "message", "error_description", "description"})
		switch {
		case code != "" && msg != "":
			return fmt.Sprintf("%s: %s", code, msg), true
		case msg != "":
			return msg, true
		case code != "":
			return code, true
		}
		return "provider returned an error", true
	case e.Type == gjson.True:
		return "provider returned an error", true
	default:
		return "", false
	}
}

func detectUserObject(root gjson.Result) (gjson.Result, bool) {
	for _, path := range userObjectPaths {
		if r := root.Get(path); r.IsObject() {
			return r, true
		}
	}
	// Flat bodies carry the user fields at the top level.
	if root.IsObject() && firstString(root, subjectFields) != "" {
		return root, true
	}
	return gjson.Result{}, false
}

// firstString returns the first of fields holding a non-empty string or number.
func firstString(obj gjson.Result, fields []string) string {
	for _, f := range fields {
		r := obj.Get(f)
		if r.Type != gjson.String && r.Type != gjson.Number {
			continue
		}
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return ""
}
