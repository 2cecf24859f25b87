package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vendstack/vending-backend/internal/adapter/http/models"
	"github.com/vendstack/vending-backend/internal/commons"
)

type TransactionService interface {
	Create(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error)
	Get(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error)
	Pay(ctx context.Context, id string) (commons.Response[models.PayTransactionResponse], error)
	Cancel(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error)
}

type TransactionController struct {
	service TransactionService
}

func NewTransactionController(service TransactionService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/transactions", c.create)
	mux.HandleFunc("GET /api/transactions/{id}", c.get)
	mux.HandleFunc("POST /api/transactions/{id}/pay", c.pay)
	mux.HandleFunc("POST /api/transactions/{id}/cancel", c.cancel)
}

func (c *TransactionController) create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logError(r, err, nil)
		response := commons.ErrorResponse[models.TransactionResponse](commons.CodeInvalidInput, "invalid request body", err.Error())
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return
	}
	logRequest(r, req)

	response, err := c.service.Create(r.Context(), req)
	if err != nil {
		logError(r, err, nil)
		status := statusForCode(response.Code)
		writeJSON(w, status, response)
		logResponse(r, status, response, start)
		return
	}

	writeJSON(w, http.StatusCreated, response)
	logResponse(r, http.StatusCreated, response, start)
}

func (c *TransactionController) get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.Get(r.Context(), r.PathValue("id"))
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

func (c *TransactionController) pay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.Pay(r.Context(), r.PathValue("id"))
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

func (c *TransactionController) cancel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.Cancel(r.Context(), r.PathValue("id"))
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
