package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scoutpoint/scoutpoint/internal/model"
)

type CandidateStore struct {
	db *sql.DB
}

func NewCandidateStore(db *sql.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

func scanCandidate(scanner interface{ Scan(...any) error }) (*model.Candidate, error) {
	var c model.Candidate
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Headline, &c.AgentSummary,
		&c.ContactEmail, &c.ContactPhone, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const candidateCols = `id, name, headline, agent_summary, contact_email, contact_phone, status, created_at, updated_at`

func (s *CandidateStore) Create(ctx context.Context, name, headline, agentSummary, contactEmail, contactPhone string) (*model.Candidate, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates (name, headline, agent_summary, contact_email, contact_phone) VALUES (?, ?, ?, ?, ?)`,
		name, headline, agentSummary, contactEmail, contactPhone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CandidateStore) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateCols+` FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (s *CandidateStore) List(ctx context.Context) ([]model.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateCols+` FROM candidates WHERE status = 'active' ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

func (s *CandidateStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update candidate status: %w", err)
	}
	return nil
}
