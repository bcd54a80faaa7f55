package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that a status-guarded update found the entity in an
// unexpected state, e.g. a second approval racing the first.
var ErrConflict = errors.New("entity state conflict")

// ErrForbidden indicates the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrLedgerFailed indicates the external chain call failed: unreachable,
// rejected, or timed out waiting for confirmation. No durable state has been
// mutated when this is returned.
var ErrLedgerFailed = errors.New("ledger operation failed")

// ErrReconciliation indicates the chain confirmed an operation that the
// record store failed to commit afterwards. The stores have drifted; the
// chain is the source of truth and a human operator may need to reconcile.
var ErrReconciliation = errors.New("ledger and record store have drifted")

// ErrInternal indicates an unexpected lower-level failure. Handlers surface it
// generically; the full cause is logged server-side.
var ErrInternal = errors.New("internal error")
