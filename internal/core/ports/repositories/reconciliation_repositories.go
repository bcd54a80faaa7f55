package repositories

import (
	"context"
	"time"

	"github.com/verdantlabs/carbon_registry_app/internal/core/domain"
)

// SequenceAllocator hands out the next number in a per-year id namespace via
// an atomic increment, so concurrent creations can never collide.
type SequenceAllocator interface {
	NextSequence(ctx context.Context, namespace string, year int) (int64, error)
}

// ReconciliationRepository performs the multi-row commits of the
// Reconciliation Engine. Each Commit* method runs in a single database
// transaction, and every status-changing write inside it is guarded by the
// expected prior status; a guard miss rolls the whole commit back and
// surfaces apperrors.ErrConflict.
type ReconciliationRepository interface {
	SequenceAllocator

	// CommitIssue applies a report approval and creates the resulting
	// credit, transaction record, and audit entry. Guarded on the report
	// still being pending.
	CommitIssue(ctx context.Context, approval domain.ReportApproval, credit domain.Credit, txn domain.Transaction, entry domain.AuditEntry) error

	// CommitReject applies a report rejection and its audit entry.
	// Guarded on the report still being pending.
	CommitReject(ctx context.Context, rejection domain.ReportRejection, entry domain.AuditEntry) error

	// CommitTransfer moves credit ownership and appends the transaction
	// record. Guarded on the credit still being active.
	CommitTransfer(ctx context.Context, creditID string, newOwnerID string, updatedAt time.Time, txn domain.Transaction) error

	// CommitRetire terminally retires a credit and appends the transaction
	// record. Guarded on the credit still being active.
	CommitRetire(ctx context.Context, creditID string, retiredAt time.Time, reason string, txHash string, txn domain.Transaction) error
}
