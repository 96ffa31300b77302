package clients

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients", h.List)
	r.Get("/clients/{id}", h.Show)
	r.Patch("/clients/{id}/status", h.UpdateStatus)
	r.Get("/clients/{id}/deliverables", h.ListDeliverables)
	r.Patch("/deliverables/{id}", h.RecordProgress)
}
