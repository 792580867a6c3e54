package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/llm-footprint/app"
	"github.com/upb/llm-footprint/handlers"
	"github.com/upb/llm-footprint/middleware"
	"github.com/upb/llm-footprint/utils"
)

const defaultRequestTimeout = 90 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(chimw.Recoverer)

	timeout := defaultRequestTimeout
	if deps.Config != nil && deps.Config.Server.WriteTimeout > 0 {
		timeout = deps.Config.Server.WriteTimeout
	}
	r.Use(chimw.Timeout(timeout))

	origins := []string{"http://localhost:*", "https://*"}
	if deps.Config != nil && len(deps.Config.CORS.AllowedOrigins) > 0 {
		origins = deps.Config.CORS.AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RegionHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	health := handlers.NewHealthHandler(deps.HealthChecker(), deps.Credentials(), logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	compareHandler := handlers.NewCompareHandler(deps.Compare, deps.Estimator, batchTimeout(deps), logger)
	routeHandler := handlers.NewRouteHandler(deps.SmartRoute, deps.Estimator, logger)
	catalog := handlers.NewCatalogHandler(deps.Registry, deps.Estimator, logger)
	usageHandler := handlers.NewUsageHandler(deps.UsageSummarizer(), logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/compare", compareHandler.HandleCompare)

		r.Route("/route", func(r chi.Router) {
			r.Post("/analyze", routeHandler.HandleAnalyze)
			r.Post("/execute", routeHandler.HandleExecute)
		})

		r.Get("/models", catalog.HandleModels)
		r.Get("/regions", catalog.HandleRegions)
		r.Get("/usage", usageHandler.HandleSummary)
	})

	return r
}

func batchTimeout(deps *app.Dependencies) time.Duration {
	if deps.Config == nil {
		return handlers.DefaultBatchTimeout
	}
	return deps.Config.Compare.BatchTimeout
}
