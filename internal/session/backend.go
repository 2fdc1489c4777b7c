package session

import (
	"fmt"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/firebase"

	"go.uber.org/zap"
)

// NewBackend selects the session minter named by SESSION_MINTER.
func NewBackend(cfg *config.Config, fb *firebase.FirebaseService, logger *zap.Logger) (Backend, error) {
	switch cfg.SessionMinter {
	case config.MinterFirebase:
		if fb == nil {
			return nil, fmt.Errorf("firebase session minter selected but Firebase is not initialized")
		}
		return fb, nil
	case config.MinterJWT:
		return NewJWTService(cfg.SessionJWTSecret, cfg.SessionJWTIssuer, cfg.SessionJWTLifetime, logger), nil
	}
	return nil, fmt.Errorf("unsupported session minter %q", cfg.SessionMinter)
}

// ProvideMinter and ProvideVerifier expose the backend under its narrower roles.
func ProvideMinter(b Backend) Minter { return b }

func ProvideVerifier(b Backend) Verifier { return b }
