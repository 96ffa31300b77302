package proposals

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/proposals/preview", h.Preview)
	r.Post("/proposals", h.Create)
	r.Get("/proposals", h.List)
	r.Get("/proposals/{id}", h.Show)
	r.Put("/proposals/{id}", h.Update)
	r.Post("/proposals/{id}/send", h.Send)
	r.Post("/proposals/{id}/share-token", h.RotateShareToken)
	r.Post("/proposals/{id}/activate", h.Activate)
	r.Post("/proposals/{id}/archive", h.Archive)
}

// MountPublicRoutes registers the token-authenticated acceptance endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/proposals/{id}/accept", h.Accept)
}
