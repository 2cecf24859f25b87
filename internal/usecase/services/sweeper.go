package services

import (
	"context"
	"time"

	"github.com/vendstack/vending-backend/internal/adapter/repository/repo_interfaces"
	"github.com/vendstack/vending-backend/internal/logger"
)

// Sweeper periodically demotes stale pending transactions to expired. It is
// a safety net behind the lazy expiry applied on every read.
type Sweeper struct {
	transactionRepo repo_interfaces.TransactionRepository
	interval        time.Duration
}

func NewSweeper(transactionRepo repo_interfaces.TransactionRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		transactionRepo: transactionRepo,
		interval:        interval,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.transactionRepo.SweepExpired(ctx)
	if err != nil {
		logger.Error("expiry sweep failed", err, nil)
		return
	}

	if count > 0 {
		logger.Info("expiry sweep demoted stale transactions", logger.Fields{
			"expired": count,
		})
	}
}
