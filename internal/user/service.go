// File: internal/user/service.go
package user

import (
	"context"
	"errors"

	"identity_bridge_backend/internal/common"
	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/profile"

	"go.uber.org/zap"
)

// Service holds the profile operations that sit outside the login pipeline.
type Service struct {
	store  profile.Store
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(store profile.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("UserService")}
}

// GetProfile loads the stored profile for userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*profile.Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return nil, common.ErrNotFound.WithDetails("No profile exists for user " + userID + ".")
	}
	if err != nil {
		s.logger.Error("Failed to read profile", zap.String("userID", userID), zap.Error(err))
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile store read failed", err)
	}
	return rec, nil
}

// SetAdmin changes the admin flag of an existing profile. This is the only write path
// for isAdmin; login reconciliation never touches it.
func (s *Service) SetAdmin(ctx context.Context, actorID, targetID string, isAdmin bool) (*profile.Record, error) {
	if _, err := s.GetProfile(ctx, targetID); err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, targetID, profile.Fields{profile.FieldIsAdmin: isAdmin}, profile.SetOptions{Merge: true}); err != nil {
		s.logger.Error("Failed to update admin flag", zap.String("userID", targetID), zap.Error(err))
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile store write failed", err)
	}
	s.logger.Info("Admin flag changed",
		zap.String("actorID", actorID),
		zap.String("userID", targetID),
		zap.Bool("isAdmin", isAdmin))

	return s.GetProfile(ctx, targetID)
}
