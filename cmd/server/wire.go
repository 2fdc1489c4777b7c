// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"identity_bridge_backend/internal/app"
	"identity_bridge_backend/internal/auth"
	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/profile"
	"identity_bridge_backend/internal/provider"
	"identity_bridge_backend/internal/session"
	"identity_bridge_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		provideLogger,
		provideFirebase,
		provideFirestore,

		// Profile store and reconciliation
		profile.NewStore,
		profile.NewReconciler,
		wire.Bind(new(auth.ProfileReconciler), new(*profile.Reconciler)),

		// Provider verification
		provider.NewHTTPClient,
		provideRedactor,
		provider.NewRegistryFromConfig,
		wire.Bind(new(auth.IdentityVerifier), new(*provider.Registry)),

		// Session credentials
		session.NewBackend,
		session.ProvideMinter,
		session.ProvideVerifier,
		provideIssuer,
		wire.Bind(new(auth.SessionIssuer), new(*session.Issuer)),

		// Handlers
		auth.NewService,
		auth.NewHandler,
		user.NewService,
		user.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
