// Package ledger is the single authoritative holder of point balances and the
// append-only transaction log. All balance mutation funnels through
// appendInTx; nothing else in the codebase writes subscriptions.point_balance.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scoutpoint/scoutpoint/internal/database"
	"github.com/scoutpoint/scoutpoint/internal/model"
)

// maxAttempts bounds the optimistic retry loop on balance contention.
const maxAttempts = 3

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	err := scanner.Scan(
		&sub.ID, &sub.AccountID, &sub.PlanID, &sub.PointBalance,
		&sub.PointsIncluded, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.PointTransaction, error) {
	var txn model.PointTransaction
	var refID sql.NullString
	err := scanner.Scan(
		&txn.ID, &txn.AccountID, &txn.Type, &txn.Amount,
		&txn.ResultingBalance, &txn.Description, &refID, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refID.Valid {
		txn.ReferenceID = &refID.String
	}
	return &txn, nil
}

const subscriptionCols = `id, account_id, plan_id, point_balance, points_included, status, created_at, updated_at`

const transactionCols = `id, account_id, type, amount, resulting_balance, description, reference_id, created_at`

// GetSubscription returns the account's subscription, or nil if none exists.
func (s *Store) GetSubscription(ctx context.Context, accountID int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE account_id = ?`,
		accountID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// GetBalance returns the spendable point balance for the account.
func (s *Store) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT point_balance FROM subscriptions WHERE account_id = ?`,
		accountID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNoSubscription
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// CreateSubscriptionTx inserts a subscription row inside the caller's
// transaction. Used by the grant service so the subscription and its initial
// GRANT commit together.
func (s *Store) CreateSubscriptionTx(tx *sql.Tx, accountID int64, planID string, pointsIncluded int64) (*model.Subscription, error) {
	result, err := tx.Exec(
		`INSERT INTO subscriptions (account_id, plan_id, point_balance, points_included) VALUES (?, ?, 0, ?)`,
		accountID, planID, pointsIncluded,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := tx.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ChangePlan updates plan_id and points_included. The balance is deliberately
// untouched: switching plans neither grants nor revokes points.
func (s *Store) ChangePlan(ctx context.Context, accountID int64, planID string, pointsIncluded int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET plan_id = ?, points_included = ?, updated_at = CURRENT_TIMESTAMP WHERE account_id = ?`,
		planID, pointsIncluded, accountID,
	)
	if err != nil {
		return fmt.Errorf("change plan: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoSubscription
	}
	return nil
}

// AppendTransaction applies a signed amount to the account's balance and
// records the ledger row, as one atomic unit. It retries a bounded number of
// times when the balance moves under it, then surfaces ErrConflict.
func (s *Store) AppendTransaction(ctx context.Context, accountID int64, typ model.TransactionType, amount int64, description string, referenceID *string) (*model.PointTransaction, error) {
	var txn *model.PointTransaction
	err := s.withRetry(ctx, func(tx *sql.Tx) error {
		var err error
		txn, err = s.appendInTx(tx, accountID, typ, amount, description, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// AppendTransactionTx is the single-attempt variant running inside the
// caller's transaction. The consumption engine uses it so the debit shares an
// atomic unit with the gated action's own writes.
func (s *Store) AppendTransactionTx(tx *sql.Tx, accountID int64, typ model.TransactionType, amount int64, description string, referenceID *string) (*model.PointTransaction, error) {
	return s.appendInTx(tx, accountID, typ, amount, description, referenceID)
}

func (s *Store) appendInTx(tx *sql.Tx, accountID int64, typ model.TransactionType, amount int64, description string, referenceID *string) (*model.PointTransaction, error) {
	var balance int64
	err := tx.QueryRow(
		`SELECT point_balance FROM subscriptions WHERE account_id = ?`,
		accountID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	newBalance := balance + amount
	if newBalance < 0 {
		return nil, &InsufficientPointsError{Required: -amount, Available: balance}
	}

	// Compare-and-swap on the balance read above. A concurrent commit between
	// the read and this update leaves RowsAffected at zero.
	result, err := tx.Exec(
		`UPDATE subscriptions SET point_balance = ?, updated_at = CURRENT_TIMESTAMP WHERE account_id = ? AND point_balance = ?`,
		newBalance, accountID, balance,
	)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, errBalanceChanged
	}

	var ref any
	if referenceID != nil {
		ref = *referenceID
	}
	res, err := tx.Exec(
		`INSERT INTO point_transactions (account_id, type, amount, resulting_balance, description, reference_id) VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, string(typ), amount, newBalance, description, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := tx.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// withRetry runs fn in its own transaction, retrying contention up to
// maxAttempts before giving up with ErrConflict. Two failure kinds count as
// contention: a lost compare-and-swap on the balance, and SQLITE_BUSY from a
// concurrent writer holding the lock past the busy timeout. Each attempt gets
// a fresh transaction. Any other error aborts immediately and rolls back.
func (s *Store) withRetry(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.inTx(ctx, fn)
		if err == nil {
			return nil
		}
		if err != errBalanceChanged && !database.IsBusy(err) {
			return err
		}
		if attempt >= maxAttempts {
			return ErrConflict
		}
	}
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InTx exposes the store's transaction wrapper to collaborators that need to
// couple their own writes to a ledger mutation.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.inTx(ctx, fn)
}

// ListTransactions returns the account's ledger rows newest first. Paging is
// offset-based; rows are ordered by id so a page never skips or double-counts
// entries that existed at request time.
func (s *Store) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]model.PointTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM point_transactions WHERE account_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.PointTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}
