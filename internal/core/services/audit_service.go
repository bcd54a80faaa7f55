package services

import (
	"context"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
	portsrepo "github.com/verdantlabs/carbon_registry_app/internal/core/ports/repositories"
	portssvc "github.com/verdantlabs/carbon_registry_app/internal/core/ports/services"
)

const listAuditLimit = 100

// auditService provides read access to the regulatory audit trail.
type auditService struct {
	auditRepo portsrepo.AuditReader
}

// NewAuditService creates a new audit query service.
func NewAuditService(auditRepo portsrepo.AuditReader) portssvc.AuditSvcFacade {
	return &auditService{auditRepo: auditRepo}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// ListAuditEntries lists audit entries matching the filter, newest first.
func (s *auditService) ListAuditEntries(ctx context.Context, filter portsrepo.AuditFilter) ([]domain.AuditEntry, error) {
	if filter.Limit <= 0 || filter.Limit > listAuditLimit {
		filter.Limit = listAuditLimit
	}
	return s.auditRepo.ListAuditEntries(ctx, filter)
}

// GetAuditStats aggregates decision counts and total credits issued.
func (s *auditService) GetAuditStats(ctx context.Context) (*domain.AuditStats, error) {
	return s.auditRepo.GetAuditStats(ctx)
}
