package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/portfolio-analytics/internal/di"
	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/scheduler"
)

// SystemHandlers handles system status and maintenance endpoints
type SystemHandlers struct {
	container *di.Container
	scheduler *scheduler.Scheduler
	log       zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(container *di.Container, sched *scheduler.Scheduler, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		container: container,
		scheduler: sched,
		log:       log.With().Str("component", "system_handlers").Logger(),
	}
}

// CoverageResponse is the available span of one market data source
type CoverageResponse struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// StatusResponse reports market data coverage and database health
type StatusResponse struct {
	Status        string           `json:"status"`
	PriceCoverage CoverageResponse `json:"price_coverage"`
	FXCoverage    CoverageResponse `json:"fx_coverage"`
	Portfolios    int              `json:"portfolios"`
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{Status: "healthy"}

	if err := h.container.MarketDB.HealthCheck(ctx); err != nil {
		h.log.Error().Err(err).Msg("Market database health check failed")
		resp.Status = "degraded"
	}

	prices, err := h.container.MarketStore.PriceCoverage(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get price coverage")
		http.Error(w, "Failed to get price coverage", http.StatusInternalServerError)
		return
	}
	fx, err := h.container.MarketStore.FXCoverage(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get fx coverage")
		http.Error(w, "Failed to get fx coverage", http.StatusInternalServerError)
		return
	}
	resp.PriceCoverage = coverageResponse(prices)
	resp.FXCoverage = coverageResponse(fx)

	names, err := h.container.AnalyticsService.Portfolios()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		http.Error(w, "Failed to list portfolios", http.StatusInternalServerError)
		return
	}
	resp.Portfolios = len(names)

	writeJSON(w, http.StatusOK, envelope(resp), h.log)
}

// HandleClearCache handles POST /api/system/cache/clear
func (h *SystemHandlers) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.container.CacheService.Clear(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to clear cache")
		http.Error(w, "Failed to clear cache", http.StatusInternalServerError)
		return
	}

	h.log.Info().Int("removed", n).Msg("Cache cleared via API")
	writeJSON(w, http.StatusOK, envelope(map[string]interface{}{"removed": n}), h.log)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []string{}
	if h.scheduler != nil {
		jobs = h.scheduler.JobNames()
	}
	writeJSON(w, http.StatusOK, envelope(map[string]interface{}{"jobs": jobs}), h.log)
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		http.Error(w, "Scheduler not running", http.StatusServiceUnavailable)
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.scheduler.RunByName(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, "Job failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, envelope(map[string]interface{}{"job": name, "status": "completed"}), h.log)
}

func coverageResponse(r domain.DateRange) CoverageResponse {
	if r.IsZero() {
		return CoverageResponse{}
	}
	return CoverageResponse{Start: domain.FormatDate(r.Start), End: domain.FormatDate(r.End)}
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
