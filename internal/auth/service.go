// File: internal/auth/service.go
package auth

import (
	"context"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/session"

	"go.uber.org/zap"
)

// Service runs one federated login: normalize, verify with the provider, derive the
// internal id, reconcile the stored profile and issue a session credential.
// Each request is independent; nothing is retried.
type Service struct {
	provider   string
	verifier   IdentityVerifier
	reconciler ProfileReconciler
	issuer     SessionIssuer
	logger     *zap.Logger
}

// NewService creates the login service.
func NewService(cfg *config.Config, verifier IdentityVerifier, reconciler ProfileReconciler, issuer SessionIssuer, logger *zap.Logger) *Service {
	return &Service{
		provider:   cfg.ProviderName,
		verifier:   verifier,
		reconciler: reconciler,
		issuer:     issuer,
		logger:     logger.Named("AuthService"),
	}
}

// Login processes a raw request body and returns the session credential.
// Errors are *identity.Error values carrying the failure kind.
func (s *Service) Login(ctx context.Context, body []byte) (*LoginResponse, error) {
	// A client disconnect does not abort provider or store calls already underway.
	ctx = context.WithoutCancel(ctx)
	s.logStage(StageReceived)

	cred, err := identity.ParseCredential(body)
	if err != nil {
		return nil, s.fail(StageReceived, err)
	}
	s.logStage(StageNormalized, zap.String("credential", string(cred.Kind)))

	verified, err := s.verifier.Verify(ctx, cred)
	if err != nil {
		return nil, s.fail(StageNormalized, err)
	}

	userID, err := identity.DeriveUserID(s.provider, verified.SubjectID)
	if err != nil {
		return nil, s.fail(StageVerified, err)
	}
	s.logStage(StageVerified, zap.String("userID", userID))

	rec, err := s.reconciler.Reconcile(ctx, userID, verified)
	if err != nil {
		return nil, s.fail(StageVerified, err)
	}
	s.logStage(StageReconciled, zap.String("userID", userID))

	token, err := s.issuer.Issue(ctx, userID, session.DisplayClaims{
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		PhotoURL:    verified.PictureURL,
	})
	if err != nil {
		return nil, s.fail(StageReconciled, err)
	}
	s.logStage(StageIssued, zap.String("userID", userID))

	return &LoginResponse{SessionCredential: token}, nil
}

func (s *Service) logStage(stage Stage, fields ...zap.Field) {
	s.logger.Debug("Login stage reached", append([]zap.Field{zap.String("stage", string(stage))}, fields...)...)
}

// fail records the transition to the failed state. Unclassified errors are wrapped so
// callers always receive a taxonomy error.
func (s *Service) fail(from Stage, err error) error {
	kind := identity.KindOf(err)
	if kind == "" {
		switch from {
		case StageReceived:
			kind = identity.KindMissingCredential
		case StageNormalized:
			kind = identity.KindProviderExchangeFailed
		case StageVerified:
			kind = identity.KindStoreUnavailable
		default:
			kind = identity.KindIssuerUnavailable
		}
		err = identity.NewError(kind, "", err)
	}

	fields := []zap.Field{
		zap.String("stage", string(StageFailed)),
		zap.String("from", string(from)),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if kind.ClientCorrectable() {
		s.logger.Warn("Login rejected", fields...)
	} else {
		s.logger.Error("Login failed", fields...)
	}
	return err
}
