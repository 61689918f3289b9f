package model

import "time"

type Account struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Subscription struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	PlanID         string    `json:"plan_id"`
	PointBalance   int64     `json:"point_balance"`
	PointsIncluded int64     `json:"points_included"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TransactionType is the business reason for a ledger entry.
type TransactionType string

const (
	TransactionGrant    TransactionType = "GRANT"
	TransactionPurchase TransactionType = "PURCHASE"
	TransactionConsume  TransactionType = "CONSUME"
)

// PointTransaction is one immutable row in the point ledger. Amount is signed:
// GRANT and PURCHASE rows are positive, CONSUME rows negative. Replaying the
// signed amounts in id order reproduces every ResultingBalance.
type PointTransaction struct {
	ID               int64           `json:"id"`
	AccountID        int64           `json:"account_id"`
	Type             TransactionType `json:"type"`
	Amount           int64           `json:"amount"`
	ResultingBalance int64           `json:"resulting_balance"`
	Description      string          `json:"description"`
	ReferenceID      *string         `json:"reference_id"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Candidate struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Headline     string    `json:"headline"`
	AgentSummary string    `json:"agent_summary"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Masked returns a copy with contact details stripped. Contact fields are only
// serialized for accounts that have paid for disclosure.
func (c Candidate) Masked() Candidate {
	c.ContactEmail = ""
	c.ContactPhone = ""
	return c
}

// DisclosureStatus values. A disclosure moves requested -> disclosed exactly
// once; the status field is the idempotency gate for the point debit.
const (
	DisclosureRequested = "requested"
	DisclosureDisclosed = "disclosed"
)

type Disclosure struct {
	ID          int64      `json:"id"`
	AccountID   int64      `json:"account_id"`
	CandidateID int64      `json:"candidate_id"`
	ReferenceID string     `json:"reference_id"`
	Status      string     `json:"status"`
	DisclosedAt *time.Time `json:"disclosed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type BackupRun struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	SizeBytes   int64     `json:"size_bytes"`
	CompletedAt time.Time `json:"completed_at"`
}
