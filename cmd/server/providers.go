// File: cmd/server/providers.go
package main

import (
	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/firebase"
	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/platform/logger"
	"identity_bridge_backend/internal/session"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// provideFirebase wraps the Firebase app with its cleanup. It is nil when neither the
// Firestore store nor the Firebase minter is selected.
func provideFirebase(cfg *config.Config, logger *zap.Logger) (*firebase.FirebaseService, func(), error) {
	fb, err := firebase.NewFirebaseService(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return fb, fb.Close, nil
}

func provideFirestore(fb *firebase.FirebaseService) *firestore.Client {
	return fb.Firestore()
}

func provideRedactor(cfg *config.Config) *identity.Redactor {
	return identity.NewRedactor(cfg.Secrets()...)
}

func provideIssuer(cfg *config.Config, minter session.Minter, logger *zap.Logger) *session.Issuer {
	return session.NewIssuer(minter, cfg.ProviderName, logger)
}

// provideLogger pairs the logger with a flush on shutdown.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { logger.Sync(l) }, nil
}
