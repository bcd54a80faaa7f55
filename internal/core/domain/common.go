package domain

import (
	"fmt"
	"time"
)

// AuditFields holds standard audit timestamps for mutable domain entities.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sequence namespaces for human-readable entity ids.
const (
	SeqReports      = "reports"
	SeqCredits      = "credits"
	SeqTransactions = "transactions"
)

// Prefixes for human-readable entity ids. The persisted format is fixed:
// <prefix>-<year>-<seq zero-padded to 3>, e.g. RPT-2026-007.
const (
	PrefixReport      = "RPT"
	PrefixCredit      = "CC"
	PrefixTransaction = "TXN"
)

// FormatSequenceID renders a human-readable entity id. Sequence numbers above
// 999 widen the field rather than truncate.
func FormatSequenceID(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}
