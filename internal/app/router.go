package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sliceline/sliceline/internal/auth"
	"github.com/sliceline/sliceline/internal/franchise"
	"github.com/sliceline/sliceline/internal/observability"
	"github.com/sliceline/sliceline/internal/orders"
	"github.com/sliceline/sliceline/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   *auth.Middleware
	AuthHandler      *auth.Handler
	FranchiseHandler *franchise.Handler
	OrderHandler     *orders.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	requireAuth := params.AuthMiddleware.RequireAuth
	optionalAuth := params.AuthMiddleware.OptionalAuth

	r.Route("/api/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, requireAuth)
	})
	r.Route("/api/franchise", func(r chi.Router) {
		params.FranchiseHandler.MountRoutes(r, requireAuth, optionalAuth)
	})
	r.Route("/api/order", func(r chi.Router) {
		params.OrderHandler.MountRoutes(r, requireAuth)
	})

	r.Get("/api/docs", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, struct {
			Version   string     `json:"version"`
			Endpoints []Endpoint `json:"endpoints"`
			Config    any        `json:"config"`
		}{
			Version:   Version,
			Endpoints: apiEndpoints(),
			Config: map[string]string{
				"factory": params.Config.FactoryURL,
				"db":      params.Config.DBSchema,
			},
		})
	})

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, struct {
			Message string `json:"message"`
			Version string `json:"version"`
		}{Message: "welcome to sliceline", Version: Version})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusNotFound, httpx.Message{Message: "unknown endpoint"})
	})

	return r
}
