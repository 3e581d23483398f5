package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.HandleGetHistory)
		r.Get("/stats", h.HandleGetStats)
	})
}
