package services

import (
	"context"
	"errors"

	"github.com/vendstack/vending-backend/internal/adapter/http/models"
	"github.com/vendstack/vending-backend/internal/adapter/repository/repo_interfaces"
	"github.com/vendstack/vending-backend/internal/commons"
	"github.com/vendstack/vending-backend/internal/domain"
	"github.com/vendstack/vending-backend/internal/logger"
)

type LedgerService struct {
	ledgerRepo repo_interfaces.LedgerRepository
}

func NewLedgerService(ledgerRepo repo_interfaces.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

func (s *LedgerService) Recharge(ctx context.Context, req models.RechargeRequest) (commons.Response[models.RechargeResponse], error) {
	logger.Info("ledger service recharge request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.RechargeResponse](commons.CodeInvalidInput, "validation failed", err.Error()), err
	}

	balance, err := s.ledgerRepo.Deposit(ctx, domain.HolderUser, req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			return commons.ErrorResponse[models.RechargeResponse](commons.CodeInvalidInput, "validation failed", err.Error()), err
		}
		logger.Error("ledger service recharge failed", err, nil)
		return commons.ErrorResponse[models.RechargeResponse](commons.CodeStorageError, "failed to recharge balance", "Unable to recharge balance right now"), err
	}

	logger.Info("ledger service recharge success", logger.Fields{
		"amount":     req.Amount.StringFixed(2),
		"newBalance": balance.Amount.StringFixed(2),
	})

	response := models.RechargeResponse{NewBalance: balance.Amount.StringFixed(2)}
	return commons.SuccessResponse("balance recharged", response), nil
}

func (s *LedgerService) GetBalance(ctx context.Context, holder string) (commons.Response[models.BalanceResponse], error) {
	parsed, err := domain.ParseHolder(holder)
	if err != nil {
		return commons.ErrorResponse[models.BalanceResponse](commons.CodeNotFound, "Unknown balance holder", err.Error()), err
	}

	balance, err := s.ledgerRepo.GetBalance(ctx, parsed)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownHolder) {
			return commons.ErrorResponse[models.BalanceResponse](commons.CodeNotFound, "Unknown balance holder", err.Error()), err
		}
		logger.Error("ledger service get balance failed", err, logger.Fields{
			"holder": holder,
		})
		return commons.ErrorResponse[models.BalanceResponse](commons.CodeStorageError, "failed to fetch balance", "Unable to fetch balance right now"), err
	}

	return commons.SuccessResponse("balance fetched", models.NewBalanceResponse(balance)), nil
}
