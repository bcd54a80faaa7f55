package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
)

// AuditHandler exposes the regulatory audit trail.
type AuditHandler struct {
	auditService services.AuditSvcFacade
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditSvcFacade) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditEntries lists audit entries, newest first, with optional action
// and verifier filters.
func (h *AuditHandler) ListAuditEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	filter := repositories.AuditFilter{}
	if a := c.Query("action"); a != "" {
		action := domain.AuditAction(a)
		filter.Action = &action
	}
	if v := c.Query("verifierID"); v != "" {
		filter.VerifierID = &v
	}
	if l := c.Query("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := h.auditService.ListAuditEntries(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetAuditStats aggregates the audit trail for the regulator dashboard.
func (h *AuditHandler) GetAuditStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	stats, err := h.auditService.GetAuditStats(c.Request.Context())
	if err != nil {
		respondWithError(c, logger, err, "Failed to aggregate audit stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
