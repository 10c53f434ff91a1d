package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ontoview/application/layout"
	"ontoview/application/services"
	"ontoview/infrastructure/config"
	"ontoview/interfaces/http/rest/handlers"
	"ontoview/interfaces/http/rest/middleware"
	"ontoview/interfaces/sse"
	"ontoview/pkg/auth"
	pkgerrors "ontoview/pkg/errors"
	"ontoview/pkg/observability"
)

// Router wires the diagram API
type Router struct {
	service     *services.DiagramService
	coordinator *layout.Coordinator
	hub         *sse.Hub
	metrics     *observability.Metrics
	cfg         *config.Config
	logger      *zap.Logger
}

// NewRouter creates a router over the assembled application
func NewRouter(
	service *services.DiagramService,
	coordinator *layout.Coordinator,
	hub *sse.Hub,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		service:     service,
		coordinator: coordinator,
		hub:         hub,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() (http.Handler, error) {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.cfg.IsDevelopment())
	diagramHandler := handlers.NewDiagramHandler(rt.service, errorHandler, rt.logger)
	historyHandler := handlers.NewHistoryHandler(rt.service, errorHandler, rt.logger)
	layoutHandler := handlers.NewLayoutHandler(rt.coordinator, errorHandler, rt.logger)

	authenticate, err := rt.authMiddleware()
	if err != nil {
		return nil, err
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/diagram", diagramHandler.Export)
		r.Get("/events", rt.hub.ServeHTTP)

		r.Route("/elements", func(r chi.Router) {
			r.Get("/", diagramHandler.ListElements)
			r.Post("/", diagramHandler.CreateElement)
			r.Post("/hydrate", diagramHandler.Hydrate)
			r.Get("/{elementID}", diagramHandler.GetElement)
			r.Delete("/{elementID}", diagramHandler.DeleteElement)
			r.Put("/{elementID}/position", diagramHandler.MoveElement)
			r.Put("/{elementID}/size", diagramHandler.ResizeElement)
			r.Put("/{elementID}/expanded", diagramHandler.SetExpanded)
			r.Put("/{elementID}/data", diagramHandler.SetElementData)
		})

		r.Route("/links", func(r chi.Router) {
			r.Get("/", diagramHandler.ListLinks)
			r.Post("/", diagramHandler.CreateLink)
			r.Post("/load", diagramHandler.LoadLinks)
			r.Delete("/{linkID}", diagramHandler.DeleteLink)
			r.Put("/{linkID}/vertices", diagramHandler.SetVertices)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", historyHandler.Get)
			r.Post("/undo", historyHandler.Undo)
			r.Post("/redo", historyHandler.Redo)
		})

		r.Post("/layout", layoutHandler.Run)
	})

	return router, nil
}

// authMiddleware builds JWT validation plus rate limiting from config. In
// development with no secret configured, authentication is skipped.
func (rt *Router) authMiddleware() (func(http.Handler) http.Handler, error) {
	if rt.cfg.JWTSecret == "" && rt.cfg.IsDevelopment() {
		rt.logger.Warn("no JWT secret configured; API is unauthenticated")
		return func(next http.Handler) http.Handler { return next }, nil
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     rt.cfg.JWTSecret,
		Issuer:        rt.cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}

	ipLimiter := auth.NewIPRateLimiter(rt.cfg.RateLimitPerMinute)
	userLimiter := auth.NewUserRateLimiter(rt.cfg.RateLimitPerMinute * 2)
	return middleware.Authenticate(validator, ipLimiter, userLimiter, rt.logger), nil
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
