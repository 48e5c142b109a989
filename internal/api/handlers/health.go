package handlers

import (
	"context"
	"time"

	"github.com/courtlens/casestatus-api/internal/cache"
	"github.com/courtlens/casestatus-api/internal/models"
	"github.com/courtlens/casestatus-api/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	store   cache.Store
	started time.Time
}

func NewHealthHandler(store cache.Store) *HealthHandler {
	return &HealthHandler{store: store, started: time.Now()}
}

// HealthOutput is the output wrapper for Huma.
type HealthOutput struct {
	Body models.HealthResponse
}

// Handle returns the health status.
func (h *HealthHandler) Handle(_ context.Context) *models.HealthResponse {
	return &models.HealthResponse{
		Status:        "healthy",
		Version:       version.Get().Version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		CacheBackend:  h.store.Name(),
	}
}
