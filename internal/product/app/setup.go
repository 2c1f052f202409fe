// Package app contains the application setup for the catalog service.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/abgdnv/gocatalog/internal/platform/web"
	"github.com/abgdnv/gocatalog/internal/product/handler"
	"github.com/abgdnv/gocatalog/internal/product/service"
	"github.com/abgdnv/gocatalog/internal/product/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "catalog"
	maxBodyBytes     = 1 << 20
)

type Dependencies struct {
	ProductService service.ProductService
	Logger         *slog.Logger
	APIKey         string
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

// SetupDependencies builds the service graph on top of a freshly seeded in-memory store.
func SetupDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	pService := service.NewService(store.NewInMemoryStore(store.SeedProducts()...))

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Dependencies{
		ProductService: pService,
		Logger:         logger,
		APIKey:         cfg.Auth.APIKey,
		Registry:       registry,
	}
}

// SetupHttpHandler initializes the routes and middleware of the catalog service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	pApi := handler.NewAPI(deps.ProductService, deps.Logger)
	validator := handler.NewProductValidator(deps.Logger)
	requireAPIKey := handler.APIKeyAuth(deps.APIKey, deps.Logger)

	mux := chi.NewRouter()
	mux.Use(web.RequestIDInjector)
	mux.Use(web.StructuredLogger(deps.Logger))
	mux.Use(web.Recoverer(deps.Logger, handler.RespondError(deps.Logger)))
	if deps.Registry != nil {
		mux.Use(web.NewMetrics(metricsNamespace, deps.Registry).Middleware)
	}
	mux.Use(middleware.RequestSize(maxBodyBytes))

	mux.NotFound(handler.NotFound(deps.Logger))
	mux.MethodNotAllowed(handler.NotFound(deps.Logger))

	mux.Get("/", pApi.Welcome)
	mux.Get("/healthz", pApi.HealthCheck)
	if deps.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	mux.Route("/api/products", func(r chi.Router) {
		r.Get("/", pApi.FindAll)
		// Literal routes first; chi also ranks static segments above {id}.
		r.Get("/search", pApi.Search)
		r.Get("/stats", pApi.Stats)
		r.Get("/{id}", pApi.FindByID)

		r.Group(func(r chi.Router) {
			r.Use(requireAPIKey)
			r.With(validator.Middleware(handler.ModeCreate)).Post("/", pApi.Create)
			r.With(validator.Middleware(handler.ModeUpdate)).Put("/{id}", pApi.Update)
			r.Delete("/{id}", pApi.DeleteByID)
		})
	})

	return mux
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:           mux,
		ReadTimeout:       cfg.HTTPServer.Timeout.Read,
		WriteTimeout:      cfg.HTTPServer.Timeout.Write,
		IdleTimeout:       cfg.HTTPServer.Timeout.Idle,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.HTTPServer.MaxHeaderBytes,
	}
	return server
}

// SetupPprofServer creates the profiling server. It serves http.DefaultServeMux,
// where net/http/pprof registers its handlers.
func SetupPprofServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              cfg.PProf.Addr,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
	}
}
