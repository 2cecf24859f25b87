package controller

import (
	"encoding/json"
	"net/http"

	"github.com/vendstack/vending-backend/internal/commons"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusForCode(code string) int {
	switch code {
	case commons.CodeInvalidInput:
		return http.StatusBadRequest
	case commons.CodeNotFound:
		return http.StatusNotFound
	case commons.CodeInvalidState:
		return http.StatusConflict
	case commons.CodeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case commons.CodeStorageError:
		return http.StatusServiceUnavailable
	case commons.CodeInconsistentState:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
