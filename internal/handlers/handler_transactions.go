package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
	"github.com/verdantlabs/carbon_registry_app/internal/middleware"
)

// TransactionHandler exposes the caller's reconciliation records.
type TransactionHandler struct {
	transactionService services.TransactionSvcFacade
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionSvcFacade) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// ListTransactions lists transactions involving the caller, newest first.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var txnType *domain.TransactionType
	if t := c.Query("type"); t != "" {
		tt := domain.TransactionType(t)
		txnType = &tt
	}

	txns, err := h.transactionService.ListTransactions(c.Request.Context(), userID, txnType)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// GetTransaction retrieves a transaction the caller is party to.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("transactionID"), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to fetch transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}
