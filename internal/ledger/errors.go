package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSubscription means the account has never selected a plan. Handlers
	// surface this separately from an empty balance: "you haven't subscribed"
	// is a different prompt than "you're out of points".
	ErrNoSubscription = errors.New("account has no subscription")

	// ErrInsufficientBalance is the sentinel matched by errors.Is for any
	// debit that would take the balance below zero.
	ErrInsufficientBalance = errors.New("insufficient point balance")

	// ErrConflict is returned when the balance compare-and-swap kept losing
	// against concurrent writers for the whole retry budget. Transient; the
	// caller may retry the request.
	ErrConflict = errors.New("ledger write conflict")
)

// errBalanceChanged signals a lost compare-and-swap inside one attempt. It
// never escapes the retry loop.
var errBalanceChanged = errors.New("balance changed since read")

// InsufficientPointsError reports how short the account is, so handlers can
// render a "buy more points" prompt with exact numbers.
type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientBalance }

// SideEffectError wraps whatever the caller-supplied side effect returned.
// The debit it was paired with has been rolled back.
type SideEffectError struct {
	Err error
}

func (e *SideEffectError) Error() string { return "gated action failed: " + e.Err.Error() }

func (e *SideEffectError) Unwrap() error { return e.Err }
