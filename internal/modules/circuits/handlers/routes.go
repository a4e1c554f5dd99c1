package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all circuit session routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/circuits", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleImport)
			r.Patch("/", h.HandleRename)
			r.Delete("/", h.HandleDelete)

			r.Post("/gates", h.HandlePlaceGate)
			r.Post("/cx", h.HandlePlaceCX)
			r.Delete("/cells/{qubit}/{step}", h.HandleClearCell)
			r.Put("/initial/{qubit}", h.HandleSetInitial)
			r.Post("/resize", h.HandleResize)

			r.Get("/replay", h.HandleReplay)
			r.Post("/step/{direction}", h.HandleStep)
			r.Post("/measure/{qubit}", h.HandleMeasure)
			r.Delete("/outcomes", h.HandleResample)
			r.Get("/export", h.HandleExport)
			r.Get("/play", h.HandlePlay)
		})
	})
}
