package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
)

// LedgerRepository keeps the two balances in process memory. Every read and
// mutation runs under one mutex, so the check-then-mutate sequence of a
// transfer is indivisible.
type LedgerRepository struct {
	mu       sync.Mutex
	balances map[domain.Holder]*domain.Balance
}

func NewLedgerRepository(machineSeed, userSeed decimal.Decimal) *LedgerRepository {
	now := time.Now().UTC()
	return &LedgerRepository{
		balances: map[domain.Holder]*domain.Balance{
			domain.HolderMachine: {Holder: domain.HolderMachine, Amount: machineSeed, UpdatedAt: now},
			domain.HolderUser:    {Holder: domain.HolderUser, Amount: userSeed, UpdatedAt: now},
		},
	}
}

func (r *LedgerRepository) GetBalance(_ context.Context, holder domain.Holder) (domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[holder]
	if !ok {
		return domain.Balance{}, domain.ErrUnknownHolder
	}

	return *balance, nil
}

func (r *LedgerRepository) GetBalances(_ context.Context) ([]domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balances := make([]domain.Balance, 0, len(r.balances))
	for _, holder := range []domain.Holder{domain.HolderMachine, domain.HolderUser} {
		balances = append(balances, *r.balances[holder])
	}

	return balances, nil
}

func (r *LedgerRepository) Deposit(_ context.Context, holder domain.Holder, amount decimal.Decimal) (domain.Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Balance{}, domain.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	balance, ok := r.balances[holder]
	if !ok {
		return domain.Balance{}, domain.ErrUnknownHolder
	}

	balance.Amount = balance.Amount.Add(amount)
	balance.UpdatedAt = time.Now().UTC()

	return *balance, nil
}

func (r *LedgerRepository) Transfer(_ context.Context, from, to domain.Holder, amount decimal.Decimal) (domain.Balance, domain.Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.Balance{}, domain.Balance{}, domain.ErrInvalidAmount
	}
	if from == to {
		return domain.Balance{}, domain.Balance{}, fmt.Errorf("transfer holders must differ")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fromBalance, ok := r.balances[from]
	if !ok {
		return domain.Balance{}, domain.Balance{}, domain.ErrUnknownHolder
	}
	toBalance, ok := r.balances[to]
	if !ok {
		return domain.Balance{}, domain.Balance{}, domain.ErrUnknownHolder
	}

	if fromBalance.Amount.LessThan(amount) {
		return domain.Balance{}, domain.Balance{}, domain.ErrInsufficientBalance
	}

	now := time.Now().UTC()
	fromBalance.Amount = fromBalance.Amount.Sub(amount)
	fromBalance.UpdatedAt = now
	toBalance.Amount = toBalance.Amount.Add(amount)
	toBalance.UpdatedAt = now

	return *fromBalance, *toBalance, nil
}

func (r *LedgerRepository) Ping(_ context.Context) error {
	return nil
}
