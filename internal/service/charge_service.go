package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	"github.com/rafaelduarte/charges/internal/domain/customer"
	"github.com/rafaelduarte/charges/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// DefaultChargeCacheTTL bounds how long a charge projection may be
// served from cache without a store read.
const DefaultChargeCacheTTL = 300 * time.Second

// ChargeService orchestrates the charge lifecycle: creation, cache-aside
// reads and status updates with invalidation.
type ChargeService struct {
	chargeRepo   charge.Repository
	customerRepo customer.Repository
	cache        Cache
	dispatcher   NotificationDispatcher
	tx           Transactor
	metrics      *observability.Metrics
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewChargeService creates a new ChargeService. A non-positive ttl
// falls back to DefaultChargeCacheTTL; metrics may be nil.
func NewChargeService(
	chargeRepo charge.Repository,
	customerRepo customer.Repository,
	cache Cache,
	dispatcher NotificationDispatcher,
	tx Transactor,
	metrics *observability.Metrics,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *ChargeService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultChargeCacheTTL
	}
	return &ChargeService{
		chargeRepo:   chargeRepo,
		customerRepo: customerRepo,
		cache:        cache,
		dispatcher:   dispatcher,
		tx:           tx,
		metrics:      metrics,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// CreateChargeRequest holds the input for creating a charge. The
// boundary has already validated shape and method-conditional fields.
type CreateChargeRequest struct {
	CustomerID    uuid.UUID
	PayerName     string
	PayerDocument string
	AmountCents   int64
	Description   string
	Method        charge.PaymentMethod

	CardNumber     string
	CardExpiry     string
	CardCVV        string
	CardHolderName string
	Installments   int

	DueDate *time.Time
}

func chargeCacheKey(id uuid.UUID) string {
	return "charge:" + id.String()
}

// CreateCharge resolves the customer, builds the charge for the
// requested payment method and persists it. The cache is populated
// lazily on first read, not here: creation latency is not taxed with a
// cache write, at the cost of the first read always being a miss.
func (s *ChargeService) CreateCharge(ctx context.Context, req CreateChargeRequest) (*ChargeResponse, error) {
	cust, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	c, err := charge.Build(charge.BuildRequest{
		PayerName:      req.PayerName,
		PayerDocument:  req.PayerDocument,
		AmountCents:    req.AmountCents,
		Description:    req.Description,
		Method:         req.Method,
		CardNumber:     req.CardNumber,
		CardExpiry:     req.CardExpiry,
		CardCVV:        req.CardCVV,
		CardHolderName: req.CardHolderName,
		Installments:   req.Installments,
		DueDate:        req.DueDate,
	}, cust.ID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.chargeRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("persist charge: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ChargesCreated.WithLabelValues(string(req.Method)).Inc()
	}

	return ProjectCharge(c), nil
}

// GetChargeByID returns the charge projection, serving from cache when
// possible. On a miss the projection read from the store is cached for
// the configured TTL. Cache failures never fail the read; the store
// remains the source of truth.
func (s *ChargeService) GetChargeByID(ctx context.Context, id uuid.UUID) (*ChargeResponse, error) {
	key := chargeCacheKey(id)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var resp ChargeResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
		// Corrupt entry: fall through to the store and overwrite it.
		s.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	} else if err != ErrCacheMiss {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
	}

	c, err := s.chargeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ProjectCharge(c)
	if payload, err := json.Marshal(resp); err == nil {
		if err := s.cache.SetWithTTL(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}

	return resp, nil
}

// UpdateChargeStatus transitions the charge inside a store transaction,
// then deletes the cache entry. Delete-on-write rather than
// update-in-place: the next read rebuilds the projection from the
// store, so projection changes can never be served stale. The delete is
// issued only after the transaction commits; invalidating earlier would
// let a racing reader re-cache the pre-commit row and serve it until
// the TTL expires. A reader racing this update after the delete can
// still re-cache the pre-update projection; that entry also lives at
// most until the TTL expires.
func (s *ChargeService) UpdateChargeStatus(ctx context.Context, id uuid.UUID, status charge.Status) (*charge.Charge, error) {
	var c *charge.Charge
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		c, err = s.chargeRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if err := c.TransitionTo(status); err != nil {
			return err
		}

		if err := s.chargeRepo.Update(txCtx, c); err != nil {
			return fmt.Errorf("persist charge status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	}

	key := chargeCacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed, entry expires by TTL")
	}

	return c, nil
}

// SimulatePayment triggers an asynchronous payment notification for the
// charge. Pure pass-through: delivery is owned by the dispatcher and
// its consumers.
func (s *ChargeService) SimulatePayment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.chargeRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.dispatcher.SendPaymentNotification(ctx, id); err != nil {
		return fmt.Errorf("enqueue payment notification: %w", err)
	}
	return nil
}

// ListChargesByCustomer returns charge projections for a customer.
func (s *ChargeService) ListChargesByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*ChargeResponse, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	charges, err := s.chargeRepo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	resp := make([]*ChargeResponse, 0, len(charges))
	for _, c := range charges {
		resp = append(resp, ProjectCharge(c))
	}
	return resp, nil
}
