// File: internal/user/handler.go
package user

import (
	"errors"

	"identity_bridge_backend/internal/common"
	"identity_bridge_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("UserHandler"),
	}
}

// RegisterRoutes sets up the routes for user operations.
// authMW must load the caller's profile; adminMW is applied on top of it for /admin.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.GET("/me", h.getMe)
	}

	adminGroup := router.Group("/admin")
	adminGroup.Use(authMW, adminMW)
	{
		adminGroup.PUT("/users/:userId/admin", h.setAdmin)
	}
}

func (h *Handler) getMe(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	rec := middleware.GetProfileFromContext(c)
	if userID == "" || rec == nil {
		h.logger.Error("Caller profile not found in context for /me", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}
	common.RespondOK(c, ToProfileResponse(userID, rec))
}

func (h *Handler) setAdmin(c *gin.Context) {
	var req SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Set admin: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Request body must be a JSON object."))
		return
	}

	targetID := c.Param("userId")
	rec, err := h.service.SetAdmin(c.Request.Context(), common.GetUserIDFromContext(c), targetID, *req.IsAdmin)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, ToProfileResponse(targetID, rec))
}
