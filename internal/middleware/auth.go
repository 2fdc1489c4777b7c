// File: internal/middleware/auth.go
package middleware

import (
	"errors"

	"identity_bridge_backend/internal/common"
	"identity_bridge_backend/internal/identity"
	"identity_bridge_backend/internal/profile"
	"identity_bridge_backend/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionAuth verifies the bearer session credential and loads the caller's stored
// profile. Authorization decisions downstream read that record, never token claims.
func SessionAuth(verifier session.Verifier, store profile.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := common.GetTokenFromContext(c)
		if tokenString == "" {
			logger.Debug("Bearer token missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		userID, err := verifier.VerifySession(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warn("Session verification failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired session credential."))
			return
		}

		rec, err := store.Get(c.Request.Context(), userID)
		if errors.Is(err, profile.ErrNotFound) {
			logger.Warn("Session for user without a profile", zap.String("userID", userID))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No profile exists for this session."))
			return
		}
		if err != nil {
			logger.Error("Failed to load caller profile", zap.String("userID", userID), zap.Error(err))
			common.RespondWithError(c, identity.NewError(identity.KindStoreUnavailable, "profile store read failed", err))
			return
		}

		c.Set(common.UserIDKey, userID)
		c.Set(common.ProfileKey, rec)

		logger.Debug("User authenticated successfully", zap.String("userID", userID), zap.Bool("isAdmin", rec.IsAdmin))
		c.Next()
	}
}

// GetProfileFromContext retrieves the caller's profile loaded by SessionAuth.
func GetProfileFromContext(c *gin.Context) *profile.Record {
	val, exists := c.Get(common.ProfileKey)
	if !exists {
		return nil
	}
	rec, ok := val.(*profile.Record)
	if !ok {
		return nil
	}
	return rec
}

// AdminOnly allows the request only when the caller's stored profile has isAdmin set.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := GetProfileFromContext(c)
		if rec == nil {
			// This should not happen if SessionAuth ran first
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Caller profile not found in context."))
			return
		}
		if !rec.IsAdmin {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
			return
		}
		c.Next()
	}
}
