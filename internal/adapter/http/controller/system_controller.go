package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/vendstack/vending-backend/internal/adapter/http/models"
	"github.com/vendstack/vending-backend/internal/commons"
)

type SystemService interface {
	Health(ctx context.Context) commons.Response[models.HealthResponse]
	Stats(ctx context.Context) (commons.Response[models.StatsResponse], error)
}

type SystemController struct {
	service SystemService
}

func NewSystemController(service SystemService) *SystemController {
	return &SystemController{service: service}
}

func (c *SystemController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", c.health)
	mux.HandleFunc("GET /api/stats", c.stats)
}

func (c *SystemController) health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response := c.service.Health(r.Context())
	writeJSON(w, http.StatusOK, response)
	logResponse(r, http.StatusOK, response, start)
}

func (c *SystemController) stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.Stats(r.Context())
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
