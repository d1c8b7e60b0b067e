package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/portfolios", h.HandleListPortfolios)

		r.Route("/portfolios/{name}", func(r chi.Router) {
			r.Get("/pnl", h.HandleGetPnL)
			r.Get("/daily", h.HandleGetDaily)
			r.Get("/stats", h.HandleGetStats)
			r.Get("/winners-losers", h.HandleGetWinnersLosers)
		})
	})
}
