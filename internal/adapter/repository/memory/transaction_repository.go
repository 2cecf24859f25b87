package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
	"github.com/vendstack/vending-backend/internal/logger"
)

// TransactionRepository keeps transaction records in process memory. Pay
// takes the record mutex first and the ledger mutex second; the ledger never
// calls back into this repository, so the lock order is total.
type TransactionRepository struct {
	mu      sync.Mutex
	records map[string]*domain.Transaction
	ledger  *LedgerRepository
}

func NewTransactionRepository(ledger *LedgerRepository) *TransactionRepository {
	return &TransactionRepository{
		records: make(map[string]*domain.Transaction),
		ledger:  ledger,
	}
}

func (r *TransactionRepository) Create(_ context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[transaction.ID]; exists {
		return domain.Transaction{}, domain.ErrDuplicateID
	}

	stored := transaction
	r.records[transaction.ID] = &stored

	return stored, nil
}

func (r *TransactionRepository) Get(_ context.Context, id string) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}

	return *record, nil
}

func (r *TransactionRepository) UpdateStatus(_ context.Context, id string, from, to domain.TransactionStatus) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	if record.Status != from {
		return domain.Transaction{}, domain.ErrStatusConflict
	}

	record.Status = to
	if to == domain.TransactionStatusPaid {
		now := time.Now().UTC()
		record.PaidAt = &now
	}

	return *record, nil
}

func (r *TransactionRepository) Pay(ctx context.Context, id string, amount decimal.Decimal) (domain.Transaction, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.Transaction{}, decimal.Zero, domain.ErrRecordNotFound
	}
	if record.Status != domain.TransactionStatusPending {
		return domain.Transaction{}, decimal.Zero, domain.ErrStatusConflict
	}

	now := time.Now().UTC()
	if now.After(record.ExpiresAt) {
		// Stale record: left pending here, the caller demotes it lazily.
		return domain.Transaction{}, decimal.Zero, domain.ErrStatusConflict
	}

	userBalance, _, err := r.ledger.Transfer(ctx, domain.HolderUser, domain.HolderMachine, amount)
	if err != nil {
		return domain.Transaction{}, decimal.Zero, err
	}

	record.Status = domain.TransactionStatusPaid
	record.PaidAt = &now

	return *record, userBalance.Amount, nil
}

func (r *TransactionRepository) SweepExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var count int64
	for _, record := range r.records {
		if record.ExpiredBy(now) {
			record.Status = domain.TransactionStatusExpired
			count++
		}
	}

	if count > 0 {
		logger.Info("memory transaction repository sweep", logger.Fields{
			"expired": count,
		})
	}

	return count, nil
}

func (r *TransactionRepository) Stats(_ context.Context) (domain.TransactionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.TransactionStats
	for _, record := range r.records {
		stats.Total++
		switch record.Status {
		case domain.TransactionStatusPaid:
			stats.Paid++
		case domain.TransactionStatusPending:
			stats.Pending++
		}
	}

	return stats, nil
}
