package repo_interfaces

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
)

// LedgerRepository is the only code path allowed to mutate the two balances.
type LedgerRepository interface {
	GetBalance(ctx context.Context, holder domain.Holder) (domain.Balance, error)
	GetBalances(ctx context.Context) ([]domain.Balance, error)
	Deposit(ctx context.Context, holder domain.Holder, amount decimal.Decimal) (domain.Balance, error)
	// Transfer atomically debits from and credits to by the same amount.
	// The balance check and both writes are indivisible with respect to any
	// concurrent Transfer or Deposit on the same holders.
	Transfer(ctx context.Context, from, to domain.Holder, amount decimal.Decimal) (domain.Balance, domain.Balance, error)
	Ping(ctx context.Context) error
}
