package store

import (
	"errors"
	"fmt"
)

// Sentinels shared by every store implementation. Entity-specific errors wrap
// one of the base kinds so callers can match either level with errors.Is.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")
	ErrUpdateFailed  = errors.New("update failed")

	// ErrTransactionFailed covers begin and commit failures in RunInTransaction.
	ErrTransactionFailed = errors.New("transaction failed")
)

var (
	ErrUserNotFound             = fmt.Errorf("%w: user", ErrNotFound)
	ErrPlaylistNotFound         = fmt.Errorf("%w: playlist", ErrNotFound)
	ErrEnrichmentRecordNotFound = fmt.Errorf("%w: enrichment record", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// Enrichment state errors.
var (
	// ErrAttemptNotClaimable means the record is completed or already at the
	// attempt ceiling, so no further attempt may start.
	ErrAttemptNotClaimable = fmt.Errorf("%w: attempt not claimable", ErrUpdateFailed)

	// ErrRecordFinalized means an update targeted a completed or exhausted failed record.
	ErrRecordFinalized = fmt.Errorf("%w: record already finalized", ErrUpdateFailed)
)

// IsNotFoundError reports whether err is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of uniqueness conflict.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
