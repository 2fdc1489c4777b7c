// File: internal/profile/reconciler.go
package profile

import (
	"context"
	"errors"
	"strings"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/identity"

	"go.uber.org/zap"
)

// Reconciler merges a verified identity into the stored profile without clobbering
// the creation time, the admin flag, or a real email.
type Reconciler struct {
	store              Store
	domain             string
	profileURLTemplate string
	logger             *zap.Logger
}

func NewReconciler(store Store, cfg *config.Config, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:              store,
		domain:             cfg.ProviderDomain,
		profileURLTemplate: cfg.ProviderProfileURLTemplate,
		logger:             logger.Named("ProfileReconciler"),
	}
}

// Reconcile creates the profile on first login and refreshes display fields afterwards.
// Calling it again with the same identity writes nothing.
func (r *Reconciler) Reconcile(ctx context.Context, userID string, id *identity.VerifiedIdentity) (*Record, error) {
	existing, err := r.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		return r.create(ctx, userID, id)
	case err != nil:
		r.logger.Error("Failed to read profile", zap.String("userID", userID), zap.Error(err))
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile store read failed", err)
	}
	return r.update(ctx, userID, id, existing)
}

func (r *Reconciler) create(ctx context.Context, userID string, id *identity.VerifiedIdentity) (*Record, error) {
	email := id.Email
	if email == "" {
		email = r.placeholderEmail(id.SubjectID)
	}
	fields := Fields{
		FieldCreatedAt:   ServerTimestamp,
		FieldEmail:       email,
		FieldDisplayName: id.DisplayName(),
		FieldProfileURL:  r.profileURL(id),
		FieldIsVerified:  true,
		FieldIsAdmin:     false,
	}
	err := r.store.Set(ctx, userID, fields, SetOptions{CreateOnly: true})
	if errors.Is(err, ErrAlreadyExists) {
		// A concurrent first login created it; refresh that record instead.
		r.logger.Debug("Profile created concurrently", zap.String("userID", userID))
		existing, err := r.store.Get(ctx, userID)
		if err != nil {
			r.logger.Error("Failed to read concurrently created profile", zap.String("userID", userID), zap.Error(err))
			return nil, identity.NewError(identity.KindStoreUnavailable, "profile store read failed", err)
		}
		return r.update(ctx, userID, id, existing)
	}
	if err != nil {
		r.logger.Error("Failed to create profile", zap.String("userID", userID), zap.Error(err))
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile store write failed", err)
	}

	// Read back for the server-assigned creation time.
	rec, err := r.store.Get(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to read back created profile", zap.String("userID", userID), zap.Error(err))
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile store read failed", err)
	}
	r.logger.Info("Profile created", zap.String("userID", userID))
	return rec, nil
}

func (r *Reconciler) update(ctx context.Context, userID string, id *identity.VerifiedIdentity, existing *Record) (*Record, error) {
	changes := r.changes(id, existing)
	if len(changes) == 0 {
		r.logger.Debug("Profile up to date", zap.String("userID", userID))
		return existing, nil
	}

	if err := r.store.Set(ctx, userID, changes, SetOptions{Merge: true}); err != nil {
		r.logger.Error("Failed to update profile", zap.String("userID", userID), zap.Error(err))
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile store write failed", err)
	}

	updated := *existing
	if err := changes.apply(&updated, existing.CreatedAt); err != nil {
		return nil, identity.NewError(identity.KindStoreUnavailable, "profile update produced an invalid record", err)
	}
	r.logger.Info("Profile refreshed", zap.String("userID", userID), zap.Int("fields", len(changes)))
	return &updated, nil
}

// changes lists the mutable fields that differ. Empty identity values never erase stored ones.
func (r *Reconciler) changes(id *identity.VerifiedIdentity, existing *Record) Fields {
	changes := Fields{}

	if name := id.DisplayName(); name != "" && name != existing.DisplayName {
		changes[FieldDisplayName] = name
	}
	if link := r.profileURL(id); link != "" && link != existing.ProfileURL {
		changes[FieldProfileURL] = link
	}

	placeholder := r.placeholderEmail(id.SubjectID)
	switch {
	case existing.Email == "":
		if id.Email != "" {
			changes[FieldEmail] = id.Email
		} else {
			changes[FieldEmail] = placeholder
		}
	case existing.Email == placeholder && id.Email != "":
		changes[FieldEmail] = id.Email
	}
	return changes
}

// placeholderEmail is "<subject>@<provider domain>".
func (r *Reconciler) placeholderEmail(subject string) string {
	return subject + "@" + r.domain
}

// profileURL links to the provider profile page, or falls back to the picture.
func (r *Reconciler) profileURL(id *identity.VerifiedIdentity) string {
	if r.profileURLTemplate == "" {
		return id.PictureURL
	}
	if strings.Contains(r.profileURLTemplate, "%s") {
		return strings.ReplaceAll(r.profileURLTemplate, "%s", id.SubjectID)
	}
	return r.profileURLTemplate + id.SubjectID
}
