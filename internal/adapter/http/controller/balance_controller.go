package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vendstack/vending-backend/internal/adapter/http/models"
	"github.com/vendstack/vending-backend/internal/commons"
)

type LedgerService interface {
	Recharge(ctx context.Context, req models.RechargeRequest) (commons.Response[models.RechargeResponse], error)
	GetBalance(ctx context.Context, holder string) (commons.Response[models.BalanceResponse], error)
}

type BalanceController struct {
	service LedgerService
}

func NewBalanceController(service LedgerService) *BalanceController {
	return &BalanceController{service: service}
}

func (c *BalanceController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/balances/user/recharge", c.recharge)
	mux.HandleFunc("GET /api/balances/{holder}", c.getBalance)
}

func (c *BalanceController) recharge(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.RechargeResponse](commons.CodeInvalidInput, "invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.Recharge(r.Context(), req)
	if err != nil {
		logError(r, err, nil)
		status := statusForCode(response.Code)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *BalanceController) getBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.GetBalance(r.Context(), r.PathValue("holder"))
	if err != nil {
		logError(r, err, nil)
		status := statusForCode(response.Code)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}
