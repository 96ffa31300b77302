package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agencyops/agencyops/internal/auth"
	"github.com/agencyops/agencyops/internal/catalog"
	"github.com/agencyops/agencyops/internal/clients"
	"github.com/agencyops/agencyops/internal/documents"
	"github.com/agencyops/agencyops/internal/observability"
	"github.com/agencyops/agencyops/internal/platform/httpx"
	"github.com/agencyops/agencyops/internal/proposals"
	"github.com/agencyops/agencyops/internal/reporting"
	"github.com/agencyops/agencyops/jobs"
	"github.com/agencyops/agencyops/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Tokens  *auth.Tokens
	Metrics *observability.Metrics

	AuthHandler      *auth.Handler
	ProposalHandler  *proposals.Handler
	ClientHandler    *clients.Handler
	CatalogHandler   *catalog.Handler
	DocumentHandler  *documents.Handler
	ReportingHandler *reporting.Handler
	RendererHandler  *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.RendererHandler != nil {
		params.RendererHandler.MountRoutes(r)
	}
	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}

	r.Route("/public", func(r chi.Router) {
		if params.ProposalHandler != nil {
			params.ProposalHandler.MountPublicRoutes(r)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequirePrincipal(params.Tokens, params.Logger))
		if params.ProposalHandler != nil {
			params.ProposalHandler.MountRoutes(r)
		}
		if params.DocumentHandler != nil {
			params.DocumentHandler.MountRoutes(r)
		}
		if params.ClientHandler != nil {
			params.ClientHandler.MountRoutes(r)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.ReportingHandler != nil {
			params.ReportingHandler.MountRoutes(r)
		}
	})

	return r
}
