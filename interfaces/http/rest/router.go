package rest

import (
	"net/http"

	querybus "mindrise-backend/application/queries/bus"
	"mindrise-backend/interfaces/http/rest/handlers"
	"mindrise-backend/interfaces/http/rest/middleware"
	apperrors "mindrise-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	queryBus      *querybus.QueryBus
	entryHandler  *handlers.EntryHandler
	streakHandler *handlers.StreakHandler
	authMW        *middleware.AuthMiddleware
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	queryBus *querybus.QueryBus,
	entryHandler *handlers.EntryHandler,
	streakHandler *handlers.StreakHandler,
	authMW *middleware.AuthMiddleware,
	logger *zap.Logger,
) *Router {
	return &Router{
		queryBus:      queryBus,
		entryHandler:  entryHandler,
		streakHandler: streakHandler,
		authMW:        authMW,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(apperrors.NewErrorHandler(rt.logger, false).Middleware)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.mindrise.app"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMW.Authenticate)

		// Journal entry ingestion
		r.Post("/entries", rt.entryHandler.CreateEntry)

		// Streak endpoints
		r.Route("/streak", func(r chi.Router) {
			r.Get("/", rt.streakHandler.GetStreak)
			r.Post("/populate", rt.streakHandler.PopulateLedger)
		})

		// Nudge composition
		nudgeHandler := handlers.NewNudgeHandler(rt.queryBus, rt.logger)
		r.Get("/nudges", nudgeHandler.GetNudges)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
