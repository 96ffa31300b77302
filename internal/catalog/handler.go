package catalog

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agencyops/agencyops/internal/platform/httpx"
	"github.com/agencyops/agencyops/internal/shared"
)

const maxImportBytes = 10 << 20

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	activeOnly := r.URL.Query().Get("all") != "true"
	items, err := h.service.List(r.Context(), principal.CompanyID, activeOnly)
	if err != nil {
		h.logger.Error("list catalog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Import accepts either a multipart upload in field "file" or a raw CSV body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())

	var body io.Reader = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "failed to parse form")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file is required")
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.service.Import(r.Context(), principal.CompanyID, body)
	if err != nil {
		var rowErrs ImportErrors
		if errors.As(err, &rowErrs) {
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"title":  "Import Rejected",
				"status": http.StatusUnprocessableEntity,
				"errors": rowErrs,
			})
			return
		}
		if errors.Is(err, ErrInvalidImport) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("catalog import failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
