package models

import "time"

// AuditFields are embedded in every persisted row.
type AuditFields struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
