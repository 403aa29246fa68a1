package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/internal/config"
	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/internal/dataview"
	"github.com/ghxstship/marketplace/internal/observability"
	"github.com/ghxstship/marketplace/internal/permission"
	"github.com/ghxstship/marketplace/internal/realtime"
	"github.com/ghxstship/marketplace/internal/transfer"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Engine       *crud.Engine
	Resolver     *permission.Resolver
	Views        *dataview.Registry
	Exporter     *transfer.Exporter
	Importer     *transfer.Importer
	Bridge       *realtime.Bridge
	Metrics      *observability.Metrics
	Authenticate func(http.Handler) http.Handler
	Ready        func() error
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	if deps.Config.Observability.Tracing.Enabled {
		r.Use(observability.TracingMiddleware)
	}

	// Public routes, no authentication.
	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady(deps.Ready))
	if deps.Config.Observability.Metrics.Enabled {
		path := deps.Config.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, observability.Handler())
	}

	// Authenticated routes with the full middleware chain.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext(deps.Resolver))
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Get("/api/roles", handleGetUserRoles(deps.Resolver))
		r.Get("/api/export/templates", handleExportTemplates)
		r.Get("/api/import/templates", handleImportTemplates)

		r.Route("/api/{entity}", func(r chi.Router) {
			r.Get("/", handleListRecords(deps.Engine))
			r.Post("/", handleCreateRecord(deps.Engine))
			r.Post("/bulk", handleBulkAction(deps.Engine))
			r.Get("/export", handleExport(deps.Engine, deps.Resolver, deps.Exporter, deps.Metrics))
			r.Post("/import/preview", handleImportPreview(deps.Importer,
				deps.Config.Transfer.MaxUploadBytes, deps.Config.Transfer.PreviewRows))
			r.Post("/import", handleImport(deps.Importer, deps.Resolver, deps.Metrics,
				deps.Config.Transfer.MaxUploadBytes, deps.Config.Transfer.MaxImportRows))
			if deps.Config.Realtime.Enabled && deps.Bridge != nil {
				r.Get("/stream", handleStream(deps.Bridge, deps.Config.Realtime, logger, deps.Metrics))
			}
			if deps.Views != nil {
				r.Get("/fields", handleFieldConfigs(deps.Views))
				r.Route("/view", func(r chi.Router) {
					r.Get("/", handleGetView(deps.Views))
					r.Put("/", handleUpdateView(deps.Views))
					r.Post("/sorts", handleAddViewSort(deps.Views))
					r.Delete("/sorts/{field}", handleRemoveViewSort(deps.Views))
					r.Post("/fields/{key}/toggle", handleToggleViewField(deps.Views))
					r.Put("/selection", handleUpdateViewSelection(deps.Views))
				})
			}

			r.Get("/{id}", handleGetRecord(deps.Engine))
			r.Patch("/{id}", handleUpdateRecord(deps.Engine))
			r.Delete("/{id}", handleDeleteRecord(deps.Engine))
			r.Post("/{id}/duplicate", handleDuplicateRecord(deps.Engine))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness, probing the store when a check is wired.
func handleReady(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"reason": err.Error(),
				})
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
