package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrInvalid  = errors.New("invalid")
	// ErrConflict signals an exhausted optimistic-locking retry; the whole
	// operation may be retried by the caller.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable signals a transient storage failure. No partial write is
	// observable after it; callers may retry with backoff.
	ErrUnavailable = errors.New("store_unavailable")
	// ErrInsufficientFunds is only raised when the sufficient-funds policy is
	// switched on.
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrLimitExceeded is only raised when daily-limit enforcement is on.
	ErrLimitExceeded = errors.New("daily_withdrawal_limit_exceeded")
	// ErrAccountInactive is only raised when the inactive-account policy is on.
	ErrAccountInactive = errors.New("account_inactive")
)
