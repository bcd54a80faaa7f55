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

// CreditHandler exposes credit holdings and the owner-driven transfer and
// retirement operations.
type CreditHandler struct {
	creditService services.CreditSvcFacade
	reconService  services.ReconciliationSvcFacade
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditService services.CreditSvcFacade, reconService services.ReconciliationSvcFacade) *CreditHandler {
	return &CreditHandler{creditService: creditService, reconService: reconService}
}

// ListCredits lists the caller's credits, optionally filtered by status.
func (h *CreditHandler) ListCredits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var status *domain.CreditStatus
	if s := c.Query("status"); s != "" {
		cs := domain.CreditStatus(s)
		status = &cs
	}

	credits, err := h.creditService.ListCredits(c.Request.Context(), userID, status)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list credits")
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": credits})
}

// WalletBalance aggregates the caller's credit holdings by status.
func (h *CreditHandler) WalletBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := h.creditService.WalletBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to fetch wallet balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

// GetCredit retrieves a credit the caller currently owns.
func (h *CreditHandler) GetCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	credit, err := h.creditService.GetCredit(c.Request.Context(), c.Param("creditID"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to fetch credit")
		return
	}
	c.JSON(http.StatusOK, credit)
}

// TransferCredit records an owner-executed on-chain transfer.
func (h *CreditHandler) TransferCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.TransferCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creditID := c.Param("creditID")
	credit, txn, err := h.reconService.TransferCredit(c.Request.Context(), creditID, userID, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to transfer credit")
		return
	}

	logger.Info("Credit transferred",
		slog.String("credit_id", credit.CreditID),
		slog.String("transaction_id", txn.TransactionID),
	)
	c.JSON(http.StatusOK, dto.CreditMutationResponse{
		Message:     "credit transferred",
		Credit:      credit,
		Transaction: txn,
	})
}

// RetireCredit terminally retires a credit the caller owns.
func (h *CreditHandler) RetireCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.RetireCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creditID := c.Param("creditID")
	credit, txn, err := h.reconService.RetireCredit(c.Request.Context(), creditID, userID, req)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retire credit")
		return
	}

	logger.Info("Credit retired",
		slog.String("credit_id", credit.CreditID),
		slog.String("transaction_id", txn.TransactionID),
	)
	c.JSON(http.StatusOK, dto.CreditMutationResponse{
		Message:     "credit retired",
		Credit:      credit,
		Transaction: txn,
	})
}
