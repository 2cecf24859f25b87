package repo_interfaces

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
	Get(ctx context.Context, id string) (domain.Transaction, error)
	// UpdateStatus transitions id from one status to another as a single
	// compare-and-set. Returns domain.ErrStatusConflict when the record is
	// no longer in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus) (domain.Transaction, error)
	// Pay marks a pending, unexpired transaction paid and moves amount from
	// the user balance to the machine balance as one atomic unit. Returns
	// the paid record and the new user balance. The transaction stays
	// pending when the user balance is short.
	Pay(ctx context.Context, id string, amount decimal.Decimal) (domain.Transaction, decimal.Decimal, error)
	SweepExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (domain.TransactionStats, error)
}
