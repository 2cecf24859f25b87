package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/vendstack/vending-backend/internal/adapter/http/models"
	"github.com/vendstack/vending-backend/internal/adapter/repository/repo_interfaces"
	"github.com/vendstack/vending-backend/internal/commons"
	"github.com/vendstack/vending-backend/internal/domain"
	"github.com/vendstack/vending-backend/internal/logger"
)

const idPrefix = "TX"
const idLength = 6
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const createAttempts = 5

type TransactionService struct {
	transactionRepo repo_interfaces.TransactionRepository
}

func NewTransactionService(transactionRepo repo_interfaces.TransactionRepository) *TransactionService {
	return &TransactionService{transactionRepo: transactionRepo}
}

func (s *TransactionService) Create(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transaction service create request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransactionResponse](commons.CodeInvalidInput, "validation failed", err.Error()), err
	}

	var created domain.Transaction
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		var id string
		id, err = generateTransactionID()
		if err != nil {
			return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to create transaction", "Unable to create transaction right now"), err
		}

		now := time.Now().UTC()
		record := domain.Transaction{
			ID:        id,
			Amount:    req.Amount,
			Items:     req.Items,
			Status:    domain.TransactionStatusPending,
			CreatedAt: now,
			ExpiresAt: now.Add(domain.PendingTTL),
		}

		created, err = s.transactionRepo.Create(ctx, record)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateID) {
			return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to create transaction", "Unable to create transaction right now"), err
		}
	}
	if err != nil {
		err = fmt.Errorf("transaction id space exhausted after %d attempts: %w", createAttempts, err)
		logger.Error("transaction service create id retries exhausted", err, nil)
		return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to create transaction", "Unable to create transaction right now"), err
	}

	logger.Info("transaction service create success", logger.Fields{
		"transactionId": created.ID,
		"amount":        created.Amount.StringFixed(2),
	})

	return commons.SuccessResponse("transaction created", models.NewTransactionResponse(created)), nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error) {
	transaction, err := s.lookupWithExpiry(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse](commons.CodeNotFound, "Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to fetch transaction", "Unable to fetch transaction right now"), err
	}

	return commons.SuccessResponse("transaction fetched", models.NewTransactionResponse(transaction)), nil
}

func (s *TransactionService) Pay(ctx context.Context, id string) (commons.Response[models.PayTransactionResponse], error) {
	logger.Info("transaction service pay request", logger.Fields{
		"transactionId": id,
	})

	transaction, err := s.lookupWithExpiry(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeNotFound, "Transaction not found"), err
		}
		return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeStorageError, "failed to process payment", "Unable to process payment right now"), err
	}

	if transaction.Status != domain.TransactionStatusPending {
		stateErr := &domain.InvalidStatusError{Status: transaction.Status}
		return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeInvalidState, "Invalid transaction state", stateErr.Error()), stateErr
	}

	paid, newUserBalance, err := s.transactionRepo.Pay(ctx, id, transaction.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeInsufficientFunds, "Insufficient balance", err.Error()), err
		case errors.Is(err, domain.ErrRecordNotFound):
			return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeNotFound, "Transaction not found"), err
		case errors.Is(err, domain.ErrStatusConflict):
			// Lost a race with a concurrent pay, cancel or the sweeper; report
			// whatever status the record holds now.
			current, lookupErr := s.lookupWithExpiry(ctx, id)
			if lookupErr != nil || current.Status == domain.TransactionStatusPending {
				return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeStorageError, "failed to process payment", "Unable to process payment right now"), err
			}
			stateErr := &domain.InvalidStatusError{Status: current.Status}
			return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeInvalidState, "Invalid transaction state", stateErr.Error()), stateErr
		default:
			return commons.ErrorResponse[models.PayTransactionResponse](commons.CodeStorageError, "failed to process payment", "Unable to process payment right now"), err
		}
	}

	logger.Info("transaction service pay success", logger.Fields{
		"transactionId":  paid.ID,
		"newUserBalance": newUserBalance.StringFixed(2),
	})

	response := models.PayTransactionResponse{
		Transaction:    models.NewTransactionResponse(paid),
		NewUserBalance: newUserBalance.StringFixed(2),
	}
	return commons.SuccessResponse("payment successful", response), nil
}

// Cancel only accepts pending transactions; cancelling a paid, expired or
// already-cancelled record is rejected with the current status.
func (s *TransactionService) Cancel(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transaction service cancel request", logger.Fields{
		"transactionId": id,
	})

	transaction, err := s.lookupWithExpiry(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse](commons.CodeNotFound, "Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to cancel transaction", "Unable to cancel transaction right now"), err
	}

	if transaction.Status != domain.TransactionStatusPending {
		stateErr := &domain.InvalidStatusError{Status: transaction.Status}
		return commons.ErrorResponse[models.TransactionResponse](commons.CodeInvalidState, "Invalid transaction state", stateErr.Error()), stateErr
	}

	cancelled, err := s.transactionRepo.UpdateStatus(ctx, id, domain.TransactionStatusPending, domain.TransactionStatusCancelled)
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			current, lookupErr := s.lookupWithExpiry(ctx, id)
			if lookupErr != nil || current.Status == domain.TransactionStatusPending {
				return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to cancel transaction", "Unable to cancel transaction right now"), err
			}
			stateErr := &domain.InvalidStatusError{Status: current.Status}
			return commons.ErrorResponse[models.TransactionResponse](commons.CodeInvalidState, "Invalid transaction state", stateErr.Error()), stateErr
		}
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse](commons.CodeNotFound, "Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse](commons.CodeStorageError, "failed to cancel transaction", "Unable to cancel transaction right now"), err
	}

	logger.Info("transaction service cancel success", logger.Fields{
		"transactionId": cancelled.ID,
	})

	return commons.SuccessResponse("transaction cancelled", models.NewTransactionResponse(cancelled)), nil
}

func (s *TransactionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.transactionRepo.SweepExpired(ctx)
}

// lookupWithExpiry fetches a record and demotes it to expired first when its
// deadline has passed. Losing the demotion race to another caller is fine;
// the fresh read reflects whoever won.
func (s *TransactionService) lookupWithExpiry(ctx context.Context, id string) (domain.Transaction, error) {
	transaction, err := s.transactionRepo.Get(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}

	if !transaction.ExpiredBy(time.Now().UTC()) {
		return transaction, nil
	}

	expired, err := s.transactionRepo.UpdateStatus(ctx, id, domain.TransactionStatusPending, domain.TransactionStatusExpired)
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return s.transactionRepo.Get(ctx, id)
		}
		return domain.Transaction{}, err
	}

	logger.Info("transaction service lazy expiry", logger.Fields{
		"transactionId": id,
	})

	return expired, nil
}

func generateTransactionID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random id bytes: %w", err)
	}

	id := make([]byte, idLength)
	for i, b := range buf {
		id[i] = idAlphabet[int(b)%len(idAlphabet)]
	}

	return idPrefix + string(id), nil
}
