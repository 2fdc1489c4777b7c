// File: internal/session/issuer.go
package session

import (
	"context"

	"identity_bridge_backend/internal/identity"

	"go.uber.org/zap"
)

// Claim names embedded in every session credential. They are display hints only;
// authorization reads the stored profile.
const (
	ClaimEmail       = "email"
	ClaimDisplayName = "displayName"
	ClaimPhotoURL    = "photoURL"
	ClaimProvider    = "provider"
)

// Minter signs a session credential whose enforceable subject is userID.
type Minter interface {
	Mint(ctx context.Context, userID string, claims map[string]interface{}) (string, error)
}

// Verifier turns a presented session credential back into the internal user id.
type Verifier interface {
	VerifySession(ctx context.Context, token string) (string, error)
}

// Backend mints and verifies the same kind of credential.
type Backend interface {
	Minter
	Verifier
}

// DisplayClaims are the hint fields copied into the credential.
type DisplayClaims struct {
	Email       string
	DisplayName string
	PhotoURL    string
}

// Issuer shapes the claim set and delegates signing to a Minter.
type Issuer struct {
	minter   Minter
	provider string
	logger   *zap.Logger
}

func NewIssuer(minter Minter, provider string, logger *zap.Logger) *Issuer {
	return &Issuer{minter: minter, provider: provider, logger: logger.Named("SessionIssuer")}
}

// Issue returns a signed session credential for userID.
func (i *Issuer) Issue(ctx context.Context, userID string, display DisplayClaims) (string, error) {
	claims := map[string]interface{}{
		ClaimEmail:       display.Email,
		ClaimDisplayName: display.DisplayName,
		ClaimPhotoURL:    display.PhotoURL,
		ClaimProvider:    i.provider,
	}

	token, err := i.minter.Mint(ctx, userID, claims)
	if err != nil {
		i.logger.Error("Failed to mint session credential", zap.String("userID", userID), zap.Error(err))
		return "", identity.NewError(identity.KindIssuerUnavailable, "session credential could not be issued", err)
	}
	if token == "" {
		return "", identity.Errorf(identity.KindIssuerUnavailable, "session minter returned an empty credential")
	}
	return token, nil
}
