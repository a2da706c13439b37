package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dunderai/auditcore/app"
	"github.com/dunderai/auditcore/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if deps.AuthMiddleware != nil {
			r.Use(deps.AuthMiddleware.RequireAuth)
		}

		// Audit orchestration
		r.Post("/audit", deps.AuditHandler.HandleRunAudit)

		// Finance toolset
		r.Route("/finance", func(r chi.Router) {
			r.Post("/query", deps.FinanceHandler.HandleQuery)
			r.Post("/scan", deps.FinanceHandler.HandleScan)
			r.Get("/preview", deps.FinanceHandler.HandlePreview)
			r.Get("/statistics", deps.FinanceHandler.HandleStatistics)
		})

		// Specialist agents
		r.Post("/compliance", deps.ComplianceHandler.HandleCheck)
		r.Post("/profiler", deps.ProfilerHandler.HandleInvestigate)

		// Broker message log
		r.Get("/messages", deps.MessageHandler.HandleList)

		// Verdict archive
		r.Route("/verdicts", func(r chi.Router) {
			r.Get("/", deps.VerdictHandler.HandleList)
			r.Get("/{id}", deps.VerdictHandler.HandleGet)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
