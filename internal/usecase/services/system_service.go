package services

import (
	"context"
	"time"

	"github.com/vendstack/vending-backend/internal/adapter/http/models"
	"github.com/vendstack/vending-backend/internal/adapter/repository/repo_interfaces"
	"github.com/vendstack/vending-backend/internal/commons"
	"github.com/vendstack/vending-backend/internal/logger"
)

type SystemService struct {
	transactionRepo repo_interfaces.TransactionRepository
	ledgerRepo      repo_interfaces.LedgerRepository
	startedAt       time.Time
}

func NewSystemService(transactionRepo repo_interfaces.TransactionRepository, ledgerRepo repo_interfaces.LedgerRepository) *SystemService {
	return &SystemService{
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
		startedAt:       time.Now().UTC(),
	}
}

func (s *SystemService) Health(ctx context.Context) commons.Response[models.HealthResponse] {
	database := "connected"
	if err := s.ledgerRepo.Ping(ctx); err != nil {
		logger.Error("system service storage ping failed", err, nil)
		database = "unreachable"
	}

	response := models.HealthResponse{
		Status:        "OK",
		Database:      database,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	return commons.SuccessResponse("service healthy", response)
}

func (s *SystemService) Stats(ctx context.Context) (commons.Response[models.StatsResponse], error) {
	stats, err := s.transactionRepo.Stats(ctx)
	if err != nil {
		return commons.ErrorResponse[models.StatsResponse](commons.CodeStorageError, "failed to fetch stats", "Unable to fetch stats right now"), err
	}

	balances, err := s.ledgerRepo.GetBalances(ctx)
	if err != nil {
		return commons.ErrorResponse[models.StatsResponse](commons.CodeStorageError, "failed to fetch stats", "Unable to fetch stats right now"), err
	}

	response := models.StatsResponse{
		Transactions: models.TransactionCounts{
			Total:   stats.Total,
			Paid:    stats.Paid,
			Pending: stats.Pending,
		},
		Balances: make(map[string]string, len(balances)),
	}
	for _, balance := range balances {
		response.Balances[string(balance.Holder)] = balance.Amount.StringFixed(2)
	}

	return commons.SuccessResponse("stats fetched", response), nil
}
