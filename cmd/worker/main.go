package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/bootstrap"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
	infraRedis "github.com/rafaelduarte/charges/internal/infrastructure/redis"
	"github.com/rafaelduarte/charges/internal/notifier"
	"github.com/rafaelduarte/charges/internal/repository/postgres"
	"github.com/rafaelduarte/charges/internal/service"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "charges-worker", "charges_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Services ---
	customerRepo := postgres.NewCustomerRepository(app.Pool)
	chargeRepo := postgres.NewChargeRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)
	cache := infraRedis.NewProjectionCache(app.Redis, app.Metrics)
	producer := infraRedis.NewStreamProducer(app.Redis)
	dispatcher := notifier.NewDispatcher(producer, app.Metrics, app.Logger)
	chargeService := service.NewChargeService(chargeRepo, customerRepo, cache, dispatcher, txManager, app.Metrics, app.Config.Cache.TTL, app.Logger)

	// --- Notification stream consumer ---
	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.NotificationStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.NotificationStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runNotificationProcessor(gCtx, app, consumer, chargeService)
	})

	g.Go(func() error {
		return runClaimPass(gCtx, app, consumer, chargeService)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

// runNotificationProcessor drains payment notifications: each message
// settles the charge as paid and the charge service invalidates the
// cached projection. A per-charge lock keeps concurrent consumers from
// settling the same charge twice on redelivery.
func runNotificationProcessor(
	ctx context.Context,
	app *bootstrap.App,
	consumer *infraRedis.StreamConsumer,
	chargeService *service.ChargeService,
) error {
	logger := app.Logger

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				processMessage(ctx, app, consumer, chargeService, msg.ID, msg.Values)
			}
		}
	}
}

// runClaimPass periodically takes over messages whose consumer read
// them but died or lost the per-charge lock before acking, so stuck
// deliveries are retried instead of sitting pending forever.
func runClaimPass(
	ctx context.Context,
	app *bootstrap.App,
	consumer *infraRedis.StreamConsumer,
	chargeService *service.ChargeService,
) error {
	ticker := time.NewTicker(app.Config.Worker.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		messages, err := consumer.Claim(ctx, app.Config.Worker.ClaimMinIdle)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			app.Logger.Error().Err(err).Msg("Failed to claim pending messages")
			continue
		}

		for _, msg := range messages {
			processMessage(ctx, app, consumer, chargeService, msg.ID, msg.Values)
		}
	}
}

func processMessage(
	ctx context.Context,
	app *bootstrap.App,
	consumer *infraRedis.StreamConsumer,
	chargeService *service.ChargeService,
	messageID string,
	values map[string]any,
) {
	logger := app.Logger
	start := time.Now()

	chargeIDStr, _ := values["charge_id"].(string)
	chargeID, err := uuid.Parse(chargeIDStr)
	if err != nil {
		logger.Error().Str("raw", chargeIDStr).Msg("Invalid charge ID in stream message")
		consumer.Ack(ctx, messageID)
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "malformed").Inc()
		return
	}

	lock := infraRedis.NewDistributedLock(app.Redis, "charge:"+chargeID.String(), app.Config.Worker.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil || !acquired {
		// Another consumer holds the charge; the message stays pending
		// and gets redelivered or claimed later.
		logger.Warn().Str("charge_id", chargeID.String()).Msg("Could not acquire lock, skipping")
		return
	}
	defer lock.Release(ctx)

	logger.Info().Str("charge_id", chargeID.String()).Msg("Processing payment notification")

	// The service settles the charge transactionally and invalidates
	// the cached projection only after the commit.
	_, err = chargeService.UpdateChargeStatus(ctx, chargeID, charge.StatusPaid)
	switch {
	case err == nil:
		app.Metrics.NotificationsDelivered.WithLabelValues("success").Inc()
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "success").Inc()
	case errors.Is(err, domainErrors.ErrInvalidStateTransition):
		// Charge already settled, redelivered message.
		logger.Info().Str("charge_id", chargeID.String()).Msg("Charge already settled, skipping")
		app.Metrics.NotificationsDelivered.WithLabelValues("skipped").Inc()
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "skipped").Inc()
	case errors.Is(err, domainErrors.ErrChargeNotFound):
		logger.Warn().Str("charge_id", chargeID.String()).Msg("Charge no longer exists, dropping notification")
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "dropped").Inc()
	default:
		// Leave unacked so the message is redelivered.
		logger.Error().Err(err).Str("charge_id", chargeID.String()).Msg("Failed to process notification")
		app.Metrics.NotificationsDelivered.WithLabelValues("error").Inc()
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.NotificationStream, "error").Inc()
		return
	}

	consumer.Ack(ctx, messageID)
	app.Metrics.WorkerProcessingDuration.WithLabelValues(infraRedis.NotificationStream).Observe(time.Since(start).Seconds())
}
