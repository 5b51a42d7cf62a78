package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rafaelduarte/charges/internal/infrastructure/config"
	"github.com/rafaelduarte/charges/internal/infrastructure/observability"
	customMW "github.com/rafaelduarte/charges/internal/middleware"
	"github.com/rafaelduarte/charges/internal/service"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool              *pgxpool.Pool
	RedisClient       *redis.Client
	CustomerService   *service.CustomerService
	ChargeService     *service.ChargeService
	Metrics           *observability.Metrics
	CORSConfig        config.CORSConfig
	RequestsPerMinute int
	JWTSecret         string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.RequestsPerMinute > 0 {
		r.Use(customMW.RateLimit(deps.RequestsPerMinute))
	}
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	customerH := NewCustomerController(deps.CustomerService)
	chargeH := NewChargeController(deps.ChargeService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Auth is opt-in: without a configured secret the API is open,
		// which is the local development default.
		if deps.JWTSecret != "" {
			r.Use(customMW.RequireAuth(deps.JWTSecret))
		}

		// Customers
		r.Post("/customers", customerH.Create)
		r.Get("/customers", customerH.List)
		r.Get("/customers/{id}", customerH.Get)
		r.Patch("/customers/{id}", customerH.Update)
		r.Delete("/customers/{id}", customerH.Delete)
		r.Get("/customers/{id}/charges", chargeH.ListByCustomer)

		// Charges
		r.Post("/charges", chargeH.Create)
		r.Get("/charges/{id}", chargeH.Get)
		r.Patch("/charges/{id}/status", chargeH.UpdateStatus)
		r.Post("/charges/{id}/simulate-payment", chargeH.SimulatePayment)
	})

	return r
}
