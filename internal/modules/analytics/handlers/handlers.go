// Package handlers provides HTTP handlers for portfolio analytics.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/portfolio-analytics/internal/domain"
	"github.com/aristath/portfolio-analytics/internal/modules/analytics"
	"github.com/aristath/portfolio-analytics/internal/modules/pnl"
	"github.com/aristath/portfolio-analytics/internal/modules/stats"
	"github.com/aristath/portfolio-analytics/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Analyzer is the part of the analytics service the handlers call.
type Analyzer interface {
	Portfolios() ([]string, error)
	PortfolioPath(name string) (string, error)
	Analyze(ctx context.Context, req analytics.Request) (*analytics.Report, error)
}

// Handler handles analytics HTTP requests
type Handler struct {
	service Analyzer
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service Analyzer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// PnLPointResponse is one expanded PnL row
type PnLPointResponse struct {
	Date           string  `json:"date"`
	Ticker         string  `json:"ticker"`
	PortfolioValue float64 `json:"portfolio_value"`
	CashFlow       float64 `json:"cash_flow"`
	PnL            float64 `json:"pnl"`
	PnLDisplay     string  `json:"pnl_display"`
}

// DailyPointResponse is one point of the portfolio PnL curve
type DailyPointResponse struct {
	Date       string  `json:"date"`
	PnL        float64 `json:"pnl"`
	PnLDisplay string  `json:"pnl_display"`
}

// StatsResponse is the portfolio statistics record
type StatsResponse struct {
	MaxDrawdown        float64  `json:"max_drawdown"`
	MaxDrawdownDisplay string   `json:"max_drawdown_display"`
	MaxDrawdownDate    string   `json:"max_drawdown_date"`
	DrawdownStartDate  string   `json:"drawdown_start_date"`
	SharpeRatio        *float64 `json:"sharpe_ratio"`
	PeriodPnL          float64  `json:"period_pnl"`
	PeriodPnLDisplay   string   `json:"period_pnl_display"`
}

// TickerPnLResponse is the latest PnL of one ticker
type TickerPnLResponse struct {
	Ticker     string  `json:"ticker"`
	PnL        float64 `json:"pnl"`
	PnLDisplay string  `json:"pnl_display"`
}

// HandleListPortfolios handles GET /api/analytics/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Portfolios()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		http.Error(w, "Failed to list portfolios", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"portfolios": names,
		"count":      len(names),
	}))
}

// HandleGetPnL handles GET /api/analytics/portfolios/{name}/pnl
func (h *Handler) HandleGetPnL(w http.ResponseWriter, r *http.Request) {
	report, ok := h.analyze(w, r, analytics.DefaultTopN)
	if !ok {
		return
	}

	cur := string(report.Currency)
	points := make([]PnLPointResponse, 0, len(report.Expanded.Points))
	for _, p := range report.Expanded.Points {
		points = append(points, PnLPointResponse{
			Date:           domain.FormatDate(p.Date),
			Ticker:         p.Ticker,
			PortfolioValue: p.PortfolioValue,
			CashFlow:       p.CashFlow,
			PnL:            p.PnL,
			PnLDisplay:     utils.FormatMoney(p.PnL, cur),
		})
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"currency": report.Currency,
		"range":    rangeResponse(report.Range),
		"points":   points,
	}))
}

// HandleGetDaily handles GET /api/analytics/portfolios/{name}/daily
func (h *Handler) HandleGetDaily(w http.ResponseWriter, r *http.Request) {
	report, ok := h.analyze(w, r, analytics.DefaultTopN)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"currency": report.Currency,
		"range":    rangeResponse(report.Range),
		"daily":    dailyResponse(report.Daily, string(report.Currency)),
	}))
}

// HandleGetStats handles GET /api/analytics/portfolios/{name}/stats
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	report, ok := h.analyze(w, r, analytics.DefaultTopN)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"currency": report.Currency,
		"range":    rangeResponse(report.Range),
		"stats":    statsResponse(report.Stats, string(report.Currency)),
	}))
}

// HandleGetWinnersLosers handles GET /api/analytics/portfolios/{name}/winners-losers
func (h *Handler) HandleGetWinnersLosers(w http.ResponseWriter, r *http.Request) {
	topN := analytics.DefaultTopN
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "top must be a positive integer", http.StatusBadRequest)
			return
		}
		topN = n
	}

	report, ok := h.analyze(w, r, topN)
	if !ok {
		return
	}

	cur := string(report.Currency)
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"currency": report.Currency,
		"top":      topN,
		"winners":  tickerResponse(report.Winners, cur),
		"losers":   tickerResponse(report.Losers, cur),
	}))
}

// analyze parses the common query parameters and runs the pipeline. It writes
// the error response itself and reports false on failure.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, topN int) (*analytics.Report, bool) {
	name := chi.URLParam(r, "name")

	path, err := h.service.PortfolioPath(name)
	if err != nil {
		h.writeError(w, name, err)
		return nil, false
	}

	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	req.Portfolio = path
	req.TopN = topN

	report, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.writeError(w, name, err)
		return nil, false
	}
	return report, true
}

func parseRequest(r *http.Request) (analytics.Request, error) {
	q := r.URL.Query()
	var req analytics.Request

	if raw := q.Get("start"); raw != "" {
		start, err := domain.ParseDate(raw)
		if err != nil {
			return req, err
		}
		req.Filter.Start = start
	}
	if raw := q.Get("end"); raw != "" {
		end, err := domain.ParseDate(raw)
		if err != nil {
			return req, err
		}
		req.Filter.End = end
	}
	req.Filter.Tickers = utils.ParseCSV(q.Get("tickers"))

	req.Currency = domain.PivotCurrency
	if raw := q.Get("currency"); raw != "" {
		c, err := domain.ParseCurrency(raw)
		if err != nil {
			return req, err
		}
		req.Currency = c
	}
	return req, nil
}

// writeError maps pipeline errors to status codes. Input and data problems
// are 422, unknown portfolios 404, everything else 500.
func (h *Handler) writeError(w http.ResponseWriter, name string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, analytics.ErrPortfolioNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCalculation):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Analytics request failed")
		http.Error(w, "Failed to compute analytics", status)
		return
	}

	h.log.Warn().Err(err).Str("portfolio", name).Int("status", status).Msg("Analytics request rejected")
	h.writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func rangeResponse(r domain.DateRange) map[string]string {
	return map[string]string{
		"start": domain.FormatDate(r.Start),
		"end":   domain.FormatDate(r.End),
	}
}

func dailyResponse(daily []pnl.DailyPoint, currency string) []DailyPointResponse {
	out := make([]DailyPointResponse, 0, len(daily))
	for _, d := range daily {
		out = append(out, DailyPointResponse{
			Date:       domain.FormatDate(d.Date),
			PnL:        d.PnL,
			PnLDisplay: utils.FormatMoney(d.PnL, currency),
		})
	}
	return out
}

func statsResponse(s *stats.PortfolioStats, currency string) StatsResponse {
	resp := StatsResponse{
		MaxDrawdown:        s.MaxDrawdown,
		MaxDrawdownDisplay: utils.FormatMoney(s.MaxDrawdown, currency),
		MaxDrawdownDate:    domain.FormatDate(s.MaxDrawdownDate),
		DrawdownStartDate:  domain.FormatDate(s.DrawdownStartDate),
		PeriodPnL:          s.PeriodPnL,
		PeriodPnLDisplay:   utils.FormatMoney(s.PeriodPnL, currency),
	}
	// JSON has no encoding for NaN or Inf
	if !math.IsNaN(s.SharpeRatio) && !math.IsInf(s.SharpeRatio, 0) {
		sharpe := s.SharpeRatio
		resp.SharpeRatio = &sharpe
	}
	return resp
}

func tickerResponse(items []stats.TickerPnL, currency string) []TickerPnLResponse {
	out := make([]TickerPnLResponse, 0, len(items))
	for _, it := range items {
		out = append(out, TickerPnLResponse{
			Ticker:     it.Ticker,
			PnL:        it.PnL,
			PnLDisplay: utils.FormatMoney(it.PnL, currency),
		})
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
