package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/customer"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
	"github.com/rs/zerolog"
)

// CustomerService handles customer registration and lookup. Uniqueness
// of email and document is checked here for a friendly error, and
// enforced for real by the store's unique constraints.
type CustomerService struct {
	repo     customer.Repository
	cache    Cache
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(repo customer.Repository, cache Cache, cacheTTL time.Duration, logger zerolog.Logger) *CustomerService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultChargeCacheTTL
	}
	return &CustomerService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// CreateCustomerRequest holds the input for registering a customer.
type CreateCustomerRequest struct {
	Name     string
	Email    string
	Document string
	Phone    string
}

// UpdateCustomerRequest holds the partial input for updating a customer.
type UpdateCustomerRequest struct {
	Name     *string
	Email    *string
	Document *string
	Phone    *string
}

func customerCacheKey(id uuid.UUID) string {
	return "customer:" + id.String()
}

// CreateCustomer registers a new customer after checking email and
// document uniqueness.
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, domainErrors.ErrEmailAlreadyExists
	} else if err != nil && !errors.Is(err, domainErrors.ErrCustomerNotFound) {
		return nil, err
	}

	if existing, err := s.repo.GetByDocument(ctx, req.Document); err == nil && existing != nil {
		return nil, domainErrors.ErrDocumentAlreadyExists
	} else if err != nil && !errors.Is(err, domainErrors.ErrCustomerNotFound) {
		return nil, err
	}

	c, err := customer.NewCustomer(req.Name, req.Email, req.Document, req.Phone)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("persist customer: %w", err)
	}

	return ProjectCustomer(c), nil
}

// ListCustomers returns all customers, newest first.
func (s *CustomerService) ListCustomers(ctx context.Context) ([]*CustomerResponse, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]*CustomerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, ProjectCustomer(c))
	}
	return resp, nil
}

// GetCustomerByID returns the customer projection, cache-aside like
// charge reads.
func (s *CustomerService) GetCustomerByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	key := customerCacheKey(id)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var resp CustomerResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
		s.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	} else if err != ErrCacheMiss {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := ProjectCustomer(c)
	if payload, err := json.Marshal(resp); err == nil {
		if err := s.cache.SetWithTTL(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}

	return resp, nil
}

// UpdateCustomer applies a partial update, re-checking the uniqueness
// invariants against other customers, and invalidates the cache entry.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != c.Email {
		if existing, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && existing != nil {
			return nil, domainErrors.ErrEmailAlreadyExists
		} else if err != nil && !errors.Is(err, domainErrors.ErrCustomerNotFound) {
			return nil, err
		}
	}

	if req.Document != nil && *req.Document != c.Document {
		if existing, err := s.repo.GetByDocument(ctx, *req.Document); err == nil && existing != nil {
			return nil, domainErrors.ErrDocumentAlreadyExists
		} else if err != nil && !errors.Is(err, domainErrors.ErrCustomerNotFound) {
			return nil, err
		}
	}

	c.Apply(customer.Update{
		Name:     req.Name,
		Email:    req.Email,
		Document: req.Document,
		Phone:    req.Phone,
	})

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("persist customer: %w", err)
	}

	key := customerCacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed, entry expires by TTL")
	}

	return ProjectCustomer(c), nil
}

// DeleteCustomer removes the customer and invalidates its cache entry.
// Owned charges are removed by the store's cascade.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	key := customerCacheKey(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache invalidation failed, entry expires by TTL")
	}

	return nil
}
