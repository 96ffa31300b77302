package clients

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/agencyops/agencyops/internal/platform/httpx"
	"github.com/agencyops/agencyops/internal/shared"
)

var errorClasses = httpx.Mapping{
	ErrNotFound:        httpx.ErrNotFound,
	ErrInvalidStatus:   httpx.ErrConflict,
	ErrInvalidInput:    httpx.ErrValidation,
	shared.ErrNotFound: httpx.ErrNotFound,
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	classified, ok := errorClasses.Classify(err)
	httpx.RespondError(w, classified)
	if !ok {
		h.logger.Error("clients request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

// scopedClient loads the client and hides it from other companies.
func (h *Handler) scopedClient(w http.ResponseWriter, r *http.Request, id int64) (*Client, bool) {
	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil || principal.CompanyID != client.CompanyID {
		h.respondError(w, r, ErrNotFound)
		return nil, false
	}
	return client, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	req := ListClientsRequest{
		CompanyID: principal.CompanyID,
		Search:    r.URL.Query().Get("q"),
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	client, ok := h.scopedClient(w, r, id)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, ok := h.scopedClient(w, r, id); !ok {
		return
	}
	client, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) ListDeliverables(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, ok := h.scopedClient(w, r, id); !ok {
		return
	}
	req := ListDeliverablesRequest{ClientID: id, BillingPeriod: r.URL.Query().Get("period")}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListDeliverables(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RecordProgressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current, err := h.service.GetDeliverable(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, ok := h.scopedClient(w, r, current.ClientID); !ok {
		return
	}
	d, err := h.service.RecordProgress(r.Context(), id, req.Completed)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
