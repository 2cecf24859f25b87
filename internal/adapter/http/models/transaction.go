package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
)

type CreateTransactionRequest struct {
	Amount decimal.Decimal   `json:"amount"`
	Items  []json.RawMessage `json:"items"`
}

func (r CreateTransactionRequest) Validate() error {
	var errs []string

	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if len(r.Items) == 0 {
		errs = append(errs, "items must not be empty")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type TransactionResponse struct {
	ID        string            `json:"id"`
	Amount    string            `json:"amount"`
	Items     []json.RawMessage `json:"items"`
	Status    string            `json:"status"`
	CreatedAt string            `json:"createdAt"`
	ExpiresAt string            `json:"expiresAt"`
	PaidAt    *string           `json:"paidAt,omitempty"`
}

type PayTransactionResponse struct {
	Transaction    TransactionResponse `json:"transaction"`
	NewUserBalance string              `json:"newUserBalance"`
}

func NewTransactionResponse(transaction domain.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:        transaction.ID,
		Amount:    transaction.Amount.StringFixed(2),
		Items:     transaction.Items,
		Status:    string(transaction.Status),
		CreatedAt: transaction.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt: transaction.ExpiresAt.UTC().Format(time.RFC3339),
	}

	if transaction.PaidAt != nil {
		paidAt := transaction.PaidAt.UTC().Format(time.RFC3339)
		response.PaidAt = &paidAt
	}

	return response
}
