package catalog

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/catalog", h.List)
	r.Post("/catalog/import", h.Import)
}
