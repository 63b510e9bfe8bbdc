// Package handler provides HTTP handlers for the Pollution Trends API.
package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pollutiontrends/pollutiontrends/internal/api/models"
	"github.com/pollutiontrends/pollutiontrends/internal/api/response"
	"github.com/pollutiontrends/pollutiontrends/internal/dataset"
	"github.com/pollutiontrends/pollutiontrends/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version       string
	buildTime     string
	datasetSource string
	repo          dataset.Repository
	registry      *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime, datasetSource string, repo dataset.Repository, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:       version,
		buildTime:     buildTime,
		datasetSource: datasetSource,
		repo:          repo,
		registry:      registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is ready once the dataset answers queries.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil || stats.Cities == 0 {
		response.ServiceUnavailable(w, r, "dataset not available")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"cities": stats.Cities,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - dataset and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		response.ServiceUnavailable(w, r, "dataset not available")
		return
	}

	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
		Dataset: models.DatasetStatus{
			Source:     h.datasetSource,
			Records:    stats.Records,
			Cities:     stats.Cities,
			Pollutants: stats.Pollutants,
		},
	}

	for _, health := range h.registry.GetAllHealth() {
		provider := models.ProviderStatus{
			Provider: health.Name,
			Status:   models.HealthStatusOK,
		}
		switch health.CircuitState {
		case gobreaker.StateOpen:
			provider.Status = models.HealthStatusFail
		case gobreaker.StateHalfOpen:
			provider.Status = models.HealthStatusDegraded
		}
		if health.LastSuccessAt != nil {
			ts := models.Timestamp(*health.LastSuccessAt)
			provider.LastSuccessAt = &ts
		}
		if health.LastFailureAt != nil {
			ts := models.Timestamp(*health.LastFailureAt)
			provider.LastFailureAt = &ts
		}
		if health.LastError != "" {
			msg := health.LastError
			provider.Message = &msg
		}
		status.Providers = append(status.Providers, provider)
	}

	response.JSON(w, r, http.StatusOK, status)
}
