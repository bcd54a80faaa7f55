package repositories

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// AuditFilter narrows audit trail listings. Nil fields match everything.
type AuditFilter struct {
	Action     *domain.AuditAction
	VerifierID *string
	Limit      int
}

// AuditReader defines read operations for the audit trail. Entries are
// append-only and written exclusively by the ReconciliationRepository.
type AuditReader interface {
	// ListAuditEntries retrieves audit entries matching the filter, newest first.
	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)

	// GetAuditStats aggregates decision counts and total credits issued.
	GetAuditStats(ctx context.Context) (*domain.AuditStats, error)
}

// AuditRepositoryFacade combines audit repository interfaces.
type AuditRepositoryFacade interface {
	AuditReader
}
