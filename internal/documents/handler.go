package documents

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agencyops/agencyops/internal/platform/httpx"
	"github.com/agencyops/agencyops/internal/proposals"
	"github.com/agencyops/agencyops/internal/shared"
	"github.com/agencyops/agencyops/report"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/proposals/{id}/document", h.Contract)
}

// Contract serves the contract as HTML, or as PDF with ?format=pdf.
func (h *Handler) Contract(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	asPDF := r.URL.Query().Get("format") == "pdf"
	var (
		body []byte
		p    *proposals.Proposal
	)
	if asPDF {
		body, p, err = h.service.ContractPDF(r.Context(), id)
	} else {
		body, p, err = h.service.ContractHTML(r.Context(), id)
	}
	principal := shared.PrincipalFromContext(r.Context())
	switch {
	case errors.Is(err, proposals.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "proposal not found")
		return
	case errors.Is(err, report.ErrRenderFailed):
		h.logger.Warn("contract pdf render failed", slog.Int64("proposal_id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "document renderer unavailable")
		return
	case err != nil:
		h.logger.Error("render contract", slog.Int64("proposal_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	case principal == nil || principal.CompanyID != p.CompanyID:
		httpx.Problem(w, http.StatusNotFound, "Not Found", "proposal not found")
		return
	}

	if asPDF {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "inline; filename="+FileName(p))
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
