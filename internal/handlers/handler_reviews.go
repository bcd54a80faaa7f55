package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/dto"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
)

// ReviewHandler exposes the regulator review queue and the approve/reject
// decisions that drive the reconciliation engine.
type ReviewHandler struct {
	reportService services.ReportSvcFacade
	reconService  services.ReconciliationSvcFacade
	userService   services.UserSvcFacade
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reportService services.ReportSvcFacade, reconService services.ReconciliationSvcFacade, userService services.UserSvcFacade) *ReviewHandler {
	return &ReviewHandler{
		reportService: reportService,
		reconService:  reconService,
		userService:   userService,
	}
}

// reviewer loads the calling regulator for decision attribution.
func (h *ReviewHandler) reviewer(c *gin.Context) (*domain.User, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return user, true
}

// ListPendingReviews lists the review queue, oldest submission first.
func (h *ReviewHandler) ListPendingReviews(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	reports, err := h.reportService.ListPendingReviews(c.Request.Context())
	if err != nil {
		respondWithError(c, logger, err, "Failed to list pending reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReview retrieves a single report for review. Regulators see every
// report regardless of its status.
func (h *ReviewHandler) GetReview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := h.reviewer(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("reportID"), user)
	if err != nil {
		respondWithError(c, logger, err, "Failed to fetch report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ApproveReport mints credits for a pending report and finalizes it.
func (h *ReviewHandler) ApproveReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := h.reviewer(c)
	if !ok {
		return
	}

	var req dto.ApproveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reportID := c.Param("reportID")
	report, credit, err := h.reconService.ApproveReport(c.Request.Context(), reportID, user, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to approve report")
		return
	}

	var txHash string
	if report.LedgerTxHash != nil {
		txHash = *report.LedgerTxHash
	}
	logger.Info("Report approved",
		slog.String("report_id", report.ReportID),
		slog.String("credit_id", credit.CreditID),
		slog.String("ledger_tx_hash", txHash),
	)
	c.JSON(http.StatusOK, dto.ApprovalResponse{
		Message:      "report approved and credits issued",
		Report:       report,
		Credit:       credit,
		LedgerTxHash: txHash,
	})
}

// RejectReport rejects a pending report with a mandatory reason.
func (h *ReviewHandler) RejectReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	user, ok := h.reviewer(c)
	if !ok {
		return
	}

	var req dto.RejectReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	report, err := h.reconService.RejectReport(c.Request.Context(), c.Param("reportID"), user, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to reject report")
		return
	}

	logger.Info("Report rejected", slog.String("report_id", report.ReportID))
	c.JSON(http.StatusOK, gin.H{"message": "report rejected", "report": report})
}
