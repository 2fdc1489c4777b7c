// File: internal/provider/signature.go
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"identity_bridge_backend/internal/identity"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Asymmetric algorithms only.
var assertionSigningMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512", "EdDSA"}

// claimString reads a string or numeric claim. Anything else reads as "".
func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// SignatureVerifier verifies compact signed identity tokens against the provider key set.
type SignatureVerifier struct {
	issuer   string
	audience string
	keys     *KeySetCache
	leeway   time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSignatureVerifier(issuer, audience string, keys *KeySetCache, leeway time.Duration, now func() time.Time, logger *zap.Logger) *SignatureVerifier {
	if now == nil {
		now = time.Now
	}
	return &SignatureVerifier{
		issuer:   issuer,
		audience: audience,
		keys:     keys,
		leeway:   leeway,
		now:      now,
		logger:   logger.Named("SignatureVerifier"),
	}
}

// Verify handles the signed_token credential variant.
func (v *SignatureVerifier) Verify(ctx context.Context, cred *identity.InboundCredential) (*identity.VerifiedIdentity, error) {
	return v.VerifyAssertion(ctx, cred.SignedToken)
}

// VerifyAssertion checks signature, issuer, audience and expiry before reading any claim.
// There is no path that returns claims from an unverified token.
func (v *SignatureVerifier) VerifyAssertion(ctx context.Context, raw string) (*identity.VerifiedIdentity, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, identity.Errorf(identity.KindSignatureInvalid, "signed token is not a compact three-segment token")
	}

	var keySetErr error
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			if !errors.Is(err, ErrKeyNotFound) {
				keySetErr = err
			}
			return nil, err
		}
		if key.Algorithm != "" && key.Algorithm != t.Method.Alg() {
			return nil, fmt.Errorf("key %q is for %s, token uses %s", kid, key.Algorithm, t.Method.Alg())
		}
		return key.Key, nil
	},
		jwt.WithValidMethods(assertionSigningMethods),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithJSONNumber(),
	)

	if keySetErr != nil {
		v.logger.Error("Provider key set unavailable during token verification", zap.Error(keySetErr))
		return nil, identity.NewError(identity.KindProviderExchangeFailed, "provider key set could not be fetched", keySetErr)
	}
	if err != nil || !token.Valid {
		v.logger.Warn("Signed token rejected", zap.Error(err))
		details := "signed token failed verification"
		if err != nil {
			details = err.Error()
		}
		return nil, identity.NewError(identity.KindSignatureInvalid, details, err)
	}

	// Providers send numeric ids; only the registered time claims are type-checked above.
	subject := claimString(claims, "sub")
	if subject == "" {
		return nil, identity.Errorf(identity.KindInvalidSubject, "signed token has no sub claim")
	}

	v.logger.Debug("Signed token verified", zap.String("subject", subject))
	return &identity.VerifiedIdentity{
		SubjectID:  subject,
		Email:      strings.ToLower(claimString(claims, "email")),
		GivenName:  claimString(claims, "given_name"),
		FamilyName: claimString(claims, "family_name"),
		PictureURL: claimString(claims, "picture"),
	}, nil
}
