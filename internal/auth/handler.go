// File: internal/auth/handler.go
package auth

import (
	"errors"
	"io"
	"net/http"

	"identity_bridge_backend/internal/common"
	"identity_bridge_backend/internal/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxLoginBodyBytes bounds the credential body read from clients.
const maxLoginBodyBytes = 64 << 10

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service  *Service
	redactor *identity.Redactor
	logger   *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, redactor *identity.Redactor, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		redactor: redactor,
		logger:   logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/federated", h.federatedLogin)
	}
}

func (h *Handler) federatedLogin(c *gin.Context) {
	defer h.logResponded(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxLoginBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, identity.Errorf(identity.KindMissingCredential, "request body exceeds %d bytes", maxLoginBodyBytes))
			return
		}
		common.ContextLogger(c, h.logger).Warn("Failed to read login body", zap.Error(err))
		h.respondError(c, identity.Errorf(identity.KindMissingCredential, "request body could not be read"))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondOK(c, resp)
}

func (h *Handler) logResponded(c *gin.Context) {
	common.ContextLogger(c, h.logger).Debug("Login stage reached",
		zap.String("stage", string(StageResponded)),
		zap.Int("status", c.Writer.Status()),
		zap.String("error_code", c.GetString(common.ErrorCodeKey)))
}

// respondError renders err in the error envelope with secret values scrubbed from details.
func (h *Handler) respondError(c *gin.Context, err error) {
	apiErr := common.ToAPIError(err)
	if apiErr.Details != "" {
		apiErr = apiErr.WithDetails(h.redactor.Redact(apiErr.Details))
	}
	common.RespondWithError(c, apiErr)
}
