package ledger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/plan"
)

// SideEffect is the caller's half of a gated action: whatever writes the
// action needs, performed on the same transaction handle as the point debit.
// Returning an error rolls back the debit along with the writes.
type SideEffect func(tx *sql.Tx) error

// BalanceCheck is the result of a pre-flight affordability check.
type BalanceCheck struct {
	CanProceed bool  `json:"can_proceed"`
	Required   int64 `json:"required"`
	Available  int64 `json:"available"`
}

// ConsumeResult reports a committed gated action.
type ConsumeResult struct {
	NewBalance    int64 `json:"new_balance"`
	TransactionID int64 `json:"transaction_id"`
	Cost          int64 `json:"cost"`
}

// Engine couples a point debit to a caller-defined side effect so both commit
// or both roll back.
//
// The engine is not idempotent by reference ID: calling Consume twice with
// the same reference debits twice. Callers gate repeats on their own domain
// state (e.g. a disclosure's status field) before invoking Consume.
type Engine struct {
	store  *Store
	costs  *plan.Costs
	logger *slog.Logger
}

func NewEngine(store *Store, costs *plan.Costs, logger *slog.Logger) *Engine {
	return &Engine{store: store, costs: costs, logger: logger}
}

// CheckBalance reports whether the account can afford the action right now.
// ErrNoSubscription is distinct from an affordable=false result.
func (e *Engine) CheckBalance(ctx context.Context, accountID int64, kind plan.ActionKind) (*BalanceCheck, error) {
	cost, err := e.costs.Lookup(kind)
	if err != nil {
		return nil, err
	}
	balance, err := e.store.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &BalanceCheck{
		CanProceed: balance >= cost,
		Required:   cost,
		Available:  balance,
	}, nil
}

// Consume runs the gating protocol: resolve the action's cost, fail fast if
// the balance cannot cover it, then debit, record the CONSUME transaction,
// and run the side effect in one atomic unit. A failed side effect never
// consumes points; a committed debit always has its paired effect durable.
func (e *Engine) Consume(ctx context.Context, accountID int64, kind plan.ActionKind, referenceID, description string, sideEffect SideEffect) (*ConsumeResult, error) {
	cost, err := e.costs.Lookup(kind)
	if err != nil {
		return nil, err
	}

	// Pre-flight check so an unaffordable action fails before doing work that
	// would only be rolled back. The authoritative check is the re-read
	// inside the atomic unit below.
	balance, err := e.store.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, &InsufficientPointsError{Required: cost, Available: balance}
	}

	var ref *string
	if referenceID != "" {
		ref = &referenceID
	}

	var txn *model.PointTransaction
	err = e.store.withRetry(ctx, func(tx *sql.Tx) error {
		var err error
		txn, err = e.store.appendInTx(tx, accountID, model.TransactionConsume, -cost, description, ref)
		if err != nil {
			return err
		}
		if err := sideEffect(tx); err != nil {
			return &SideEffectError{Err: err}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrNoSubscription) {
			return nil, err
		}
		var seErr *SideEffectError
		if errors.As(err, &seErr) {
			e.logger.Warn("gated action rolled back",
				"account_id", accountID,
				"action", string(kind),
				"reference_id", referenceID,
				"error", seErr.Err,
			)
		}
		return nil, err
	}

	e.logger.Info("points consumed",
		"account_id", accountID,
		"action", string(kind),
		"cost", cost,
		"balance", txn.ResultingBalance,
		"transaction_id", txn.ID,
	)
	return &ConsumeResult{NewBalance: txn.ResultingBalance, TransactionID: txn.ID, Cost: cost}, nil
}
