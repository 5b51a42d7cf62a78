package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rafaelduarte/charges/internal/bootstrap"
	"github.com/rafaelduarte/charges/internal/controller"
	infraRedis "github.com/rafaelduarte/charges/internal/infrastructure/redis"
	"github.com/rafaelduarte/charges/internal/notifier"
	"github.com/rafaelduarte/charges/internal/repository/postgres"
	"github.com/rafaelduarte/charges/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "charges-api", "charges")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	customerRepo := postgres.NewCustomerRepository(app.Pool)
	chargeRepo := postgres.NewChargeRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Infrastructure ---
	cache := infraRedis.NewProjectionCache(app.Redis, app.Metrics)
	producer := infraRedis.NewStreamProducer(app.Redis)
	dispatcher := notifier.NewDispatcher(producer, app.Metrics, app.Logger)

	// --- Services ---
	customerService := service.NewCustomerService(customerRepo, cache, app.Config.Cache.TTL, app.Logger)
	chargeService := service.NewChargeService(chargeRepo, customerRepo, cache, dispatcher, txManager, app.Metrics, app.Config.Cache.TTL, app.Logger)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:              app.Pool,
		RedisClient:       app.Redis,
		CustomerService:   customerService,
		ChargeService:     chargeService,
		Metrics:           app.Metrics,
		CORSConfig:        app.Config.Server.CORS,
		RequestsPerMinute: app.Config.Server.RequestsPerMinute,
		JWTSecret:         app.Config.Auth.JWTSecret,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
