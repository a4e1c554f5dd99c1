package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quantum routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quantum", func(r chi.Router) {
		r.Get("/gates", h.HandleGetGates)
		r.Post("/apply", h.HandleApplyGate)
		r.Post("/analyze", h.HandleAnalyze)
	})
}
