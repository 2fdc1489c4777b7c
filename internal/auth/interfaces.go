// File: internal/auth/interfaces.go
package auth

import (
	"context"

	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/profile"
	"identity_bridge_backend/internal/session"
)

// IdentityVerifier resolves an inbound credential into a verified identity.
// Implemented by provider.Registry.
type IdentityVerifier interface {
	Verify(ctx context.Context, cred *identity.InboundCredential) (*identity.VerifiedIdentity, error)
}

// ProfileReconciler is implemented by profile.Reconciler.
type ProfileReconciler interface {
	Reconcile(ctx context.Context, userID string, id *identity.VerifiedIdentity) (*profile.Record, error)
}

// SessionIssuer is implemented by session.Issuer.
type SessionIssuer interface {
	Issue(ctx context.Context, userID string, display session.DisplayClaims) (string, error)
}
