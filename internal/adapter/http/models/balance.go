package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/vendstack/vending-backend/internal/domain"
)

type RechargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (r RechargeRequest) Validate() error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	return nil
}

type RechargeResponse struct {
	NewBalance string `json:"newBalance"`
}

type BalanceResponse struct {
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}

func NewBalanceResponse(balance domain.Balance) BalanceResponse {
	return BalanceResponse{
		Holder:  string(balance.Holder),
		Balance: balance.Amount.StringFixed(2),
	}
}
