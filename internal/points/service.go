// Package points issues point grants and purchases on top of the ledger:
// subscription start, plan changes, paid top-ups, and trusted grant events
// from the billing provider.
package points

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scoutpoint/scoutpoint/internal/database"
	"github.com/scoutpoint/scoutpoint/internal/ledger"
	"github.com/scoutpoint/scoutpoint/internal/model"
	"github.com/scoutpoint/scoutpoint/internal/plan"
)

var (
	ErrAlreadySubscribed = errors.New("account already has a subscription")
	ErrPurchaseTooSmall  = errors.New("purchase amount below minimum")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// MinimumPurchase is the smallest point top-up we sell.
const MinimumPurchase = 10

type Service struct {
	ledger  *ledger.Store
	catalog *plan.Catalog
	logger  *slog.Logger
}

func NewService(ls *ledger.Store, catalog *plan.Catalog, logger *slog.Logger) *Service {
	return &Service{ledger: ls, catalog: catalog, logger: logger}
}

// GrantInitial creates the account's subscription and grants the plan's
// included points. The subscription row and the GRANT transaction commit
// together.
func (s *Service) GrantInitial(ctx context.Context, accountID int64, planID string) (*model.Subscription, error) {
	p, err := s.catalog.Lookup(planID)
	if err != nil {
		return nil, err
	}

	existing, err := s.ledger.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadySubscribed
	}

	err = s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.ledger.CreateSubscriptionTx(tx, accountID, p.ID, p.PointsIncluded); err != nil {
			return err
		}
		desc := fmt.Sprintf("Initial grant for plan %s", p.DisplayName)
		if _, err := s.ledger.AppendTransactionTx(tx, accountID, model.TransactionGrant, p.PointsIncluded, desc, nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// A concurrent GrantInitial can slip past the existence check above;
		// the UNIQUE constraint on subscriptions.account_id catches the loser.
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	s.logger.Info("subscription created",
		"account_id", accountID,
		"plan", p.ID,
		"points_included", p.PointsIncluded,
	)
	return s.ledger.GetSubscription(ctx, accountID)
}

// ChangePlan switches the subscription to a new plan. Only plan_id and
// points_included change; the point balance carries over untouched.
func (s *Service) ChangePlan(ctx context.Context, accountID int64, newPlanID string) (*model.Subscription, error) {
	p, err := s.catalog.Lookup(newPlanID)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.ChangePlan(ctx, accountID, p.ID, p.PointsIncluded); err != nil {
		return nil, err
	}
	s.logger.Info("plan changed", "account_id", accountID, "plan", p.ID)
	return s.ledger.GetSubscription(ctx, accountID)
}

// PurchaseResult reports a committed top-up.
type PurchaseResult struct {
	NewBalance int64 `json:"new_balance"`
	Price      int64 `json:"price"`
}

// PurchasePoints adds amount points at the plan's marginal price. The balance
// increase and the PURCHASE transaction commit atomically.
func (s *Service) PurchasePoints(ctx context.Context, accountID int64, amount int64) (*PurchaseResult, error) {
	if amount < MinimumPurchase {
		return nil, fmt.Errorf("%w: %d (minimum %d)", ErrPurchaseTooSmall, amount, MinimumPurchase)
	}

	sub, err := s.ledger.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ledger.ErrNoSubscription
	}

	p, err := s.catalog.Lookup(sub.PlanID)
	if err != nil {
		return nil, err
	}
	price := amount * p.AdditionalPointPrice

	desc := fmt.Sprintf("Purchased %d points", amount)
	txn, err := s.ledger.AppendTransaction(ctx, accountID, model.TransactionPurchase, amount, desc, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("points purchased",
		"account_id", accountID,
		"amount", amount,
		"price", price,
		"balance", txn.ResultingBalance,
	)
	return &PurchaseResult{NewBalance: txn.ResultingBalance, Price: price}, nil
}

// RenewalGrant grants the current plan's included points for a new billing
// period, triggered by a trusted provider event.
func (s *Service) RenewalGrant(ctx context.Context, accountID int64, referenceID string) (*model.PointTransaction, error) {
	sub, err := s.ledger.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ledger.ErrNoSubscription
	}
	p, err := s.catalog.Lookup(sub.PlanID)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("Renewal grant for plan %s", p.DisplayName)
	return s.GrantPoints(ctx, accountID, p.PointsIncluded, desc, referenceID)
}

// GrantPoints appends a GRANT from a trusted source (billing provider
// webhook, support top-up). referenceID ties the grant to the upstream event.
func (s *Service) GrantPoints(ctx context.Context, accountID int64, amount int64, description, referenceID string) (*model.PointTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	var ref *string
	if referenceID != "" {
		ref = &referenceID
	}
	txn, err := s.ledger.AppendTransaction(ctx, accountID, model.TransactionGrant, amount, description, ref)
	if err != nil {
		return nil, err
	}
	s.logger.Info("points granted",
		"account_id", accountID,
		"amount", amount,
		"balance", txn.ResultingBalance,
		"reference_id", referenceID,
	)
	return txn, nil
}
