package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
)

// AuditSvcFacade provides read access to the regulatory audit trail.
type AuditSvcFacade interface {
	// ListAuditEntries lists audit entries matching the filter, newest first.
	ListAuditEntries(ctx context.Context, filter portsrepo.AuditFilter) ([]domain.AuditEntry, error)

	// GetAuditStats aggregates decision counts and total credits issued.
	GetAuditStats(ctx context.Context) (*domain.AuditStats, error)
}
