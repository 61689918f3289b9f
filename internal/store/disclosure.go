package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scoutpoint/scoutpoint/internal/model"
)

// DisclosureStore persists contact-disclosure requests. The status column is
// the idempotency gate for the point debit: a disclosure already in
// "disclosed" state is never paid for again.
type DisclosureStore struct {
	db *sql.DB
}

func NewDisclosureStore(db *sql.DB) *DisclosureStore {
	return &DisclosureStore{db: db}
}

func scanDisclosure(scanner interface{ Scan(...any) error }) (*model.Disclosure, error) {
	var d model.Disclosure
	var disclosedAt sql.NullTime
	err := scanner.Scan(
		&d.ID, &d.AccountID, &d.CandidateID, &d.ReferenceID,
		&d.Status, &disclosedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if disclosedAt.Valid {
		d.DisclosedAt = &disclosedAt.Time
	}
	return &d, nil
}

const disclosureCols = `id, account_id, candidate_id, reference_id, status, disclosed_at, created_at, updated_at`

// Create inserts a disclosure in "requested" state.
func (s *DisclosureStore) Create(ctx context.Context, accountID, candidateID int64, referenceID string) (*model.Disclosure, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO disclosures (account_id, candidate_id, reference_id) VALUES (?, ?, ?)`,
		accountID, candidateID, referenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert disclosure: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *DisclosureStore) GetByID(ctx context.Context, id int64) (*model.Disclosure, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+disclosureCols+` FROM disclosures WHERE id = ?`, id)
	d, err := scanDisclosure(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get disclosure: %w", err)
	}
	return d, nil
}

// GetByAccountAndCandidate returns the disclosure linking an account to a
// candidate, or nil if the account never requested one.
func (s *DisclosureStore) GetByAccountAndCandidate(ctx context.Context, accountID, candidateID int64) (*model.Disclosure, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+disclosureCols+` FROM disclosures WHERE account_id = ? AND candidate_id = ?`,
		accountID, candidateID,
	)
	d, err := scanDisclosure(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get disclosure by account and candidate: %w", err)
	}
	return d, nil
}

func (s *DisclosureStore) ListByAccount(ctx context.Context, accountID int64) ([]model.Disclosure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+disclosureCols+` FROM disclosures WHERE account_id = ? ORDER BY id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list disclosures: %w", err)
	}
	defer rows.Close()

	var disclosures []model.Disclosure
	for rows.Next() {
		d, err := scanDisclosure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan disclosure: %w", err)
		}
		disclosures = append(disclosures, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disclosures: %w", err)
	}
	return disclosures, nil
}

// MarkDisclosedTx flips a disclosure to "disclosed" inside the caller's
// transaction. This is the side effect run within the consumption engine's
// atomic unit, so the status flip and the point debit commit together.
func (s *DisclosureStore) MarkDisclosedTx(tx *sql.Tx, id int64) error {
	result, err := tx.Exec(
		`UPDATE disclosures SET status = ?, disclosed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		model.DisclosureDisclosed, id, model.DisclosureRequested,
	)
	if err != nil {
		return fmt.Errorf("mark disclosed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("disclosure %d not in requested state", id)
	}
	return nil
}

// HasDisclosed reports whether the account has a completed disclosure for the
// candidate. Used to decide whether contact fields are serialized.
func (s *DisclosureStore) HasDisclosed(ctx context.Context, accountID, candidateID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM disclosures WHERE account_id = ? AND candidate_id = ? AND status = ?`,
		accountID, candidateID, model.DisclosureDisclosed,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has disclosed: %w", err)
	}
	return n > 0, nil
}
