package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/infrastructure/observability"
	"github.com/rafaelduarte/charges/pkg/retry"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// StreamPublisher publishes a notification request for a charge.
type StreamPublisher interface {
	PublishPaymentNotification(ctx context.Context, chargeID string) error
}

// Dispatcher queues payment notifications on the notification stream.
// Publishes go through a circuit breaker so a Redis outage fails fast
// instead of stalling every request, and transient errors are retried
// with backoff.
type Dispatcher struct {
	producer StreamPublisher
	breaker  *gobreaker.CircuitBreaker[struct{}]
	retryCfg retry.Config
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

func NewDispatcher(producer StreamPublisher, metrics *observability.Metrics, logger zerolog.Logger) *Dispatcher {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notification-stream",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})

	return &Dispatcher{
		producer: producer,
		breaker:  breaker,
		retryCfg: retry.DefaultConfig(),
		metrics:  metrics,
		logger:   logger.With().Str("component", "notifier").Logger(),
	}
}

func (d *Dispatcher) SendPaymentNotification(ctx context.Context, chargeID uuid.UUID) error {
	cfg := d.retryCfg
	cfg.OnRetry = func(attempt uint, err error) {
		d.logger.Warn().
			Err(err).
			Uint("attempt", attempt).
			Str("charge_id", chargeID.String()).
			Msg("retrying notification publish")
	}

	err := retry.Do(ctx, cfg, func() error {
		_, err := d.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, d.producer.PublishPaymentNotification(ctx, chargeID.String())
		})
		return err
	})
	if err != nil {
		d.count("error")
		return fmt.Errorf("publish payment notification: %w", err)
	}

	d.count("success")
	return nil
}

func (d *Dispatcher) count(result string) {
	if d.metrics != nil {
		d.metrics.NotificationsPublished.WithLabelValues(result).Inc()
	}
}
