package proposals

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/agencyops/agencyops/internal/platform/httpx"
	"github.com/agencyops/agencyops/internal/shared"
)

var errorClasses = httpx.Mapping{
	ErrNotFound:             httpx.ErrNotFound,
	ErrInvalidStatus:        httpx.ErrConflict,
	ErrValidation:           httpx.ErrValidation,
	ErrInvalidToken:         httpx.ErrForbidden,
	ErrActivationInProgress: httpx.ErrLocked,
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
	if !ok {
		h.logger.Error("proposals request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, classified)
}

// scoped loads the proposal named in the URL and hides it from other companies.
func (h *Handler) scoped(w http.ResponseWriter, r *http.Request) (*Proposal, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return nil, false
	}
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil || principal.CompanyID != p.CompanyID {
		h.respondError(w, r, ErrNotFound)
		return nil, false
	}
	return p, true
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (ProposalRequest, bool) {
	var req ProposalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return req, false
	}
	return req, true
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	result, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	p, err := h.service.Create(r.Context(), principal.CompanyID, req, principal.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	req := ListProposalsRequest{
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
	p, ok := h.scoped(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.scoped(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), p.ID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	p, ok := h.scoped(w, r)
	if !ok {
		return
	}
	result, err := h.service.Send(r.Context(), p.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) RotateShareToken(w http.ResponseWriter, r *http.Request) {
	p, ok := h.scoped(w, r)
	if !ok {
		return
	}
	token, err := h.service.RotateShareToken(r.Context(), p.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"share_token": token})
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.scoped(w, r)
	if !ok {
		return
	}
	activated, err := h.service.Activate(r.Context(), p.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, activated)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	p, ok := h.scoped(w, r)
	if !ok {
		return
	}
	archived, err := h.service.Archive(r.Context(), p.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, archived)
}

type acceptResponse struct {
	ID             int64   `json:"id"`
	Status         Status  `json:"status"`
	ContractNumber *string `json:"contract_number,omitempty"`
}

// Accept is reachable without a session; the share token is the only credential.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AcceptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, r, ErrInvalidToken)
		return
	}
	p, err := h.service.Accept(r.Context(), id, req.Token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, acceptResponse{ID: p.ID, Status: p.Status, ContractNumber: p.ContractNumber})
}
