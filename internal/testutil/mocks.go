package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	"github.com/rafaelduarte/charges/internal/domain/customer"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
	"github.com/rafaelduarte/charges/internal/service"
)

// --- Charge Repository Mock ---

// MockChargeRepository is a mock implementation of charge.Repository.
// GetByIDCalls counts store reads so tests can assert whether a lookup
// was served from cache.
type MockChargeRepository struct {
	mu      sync.Mutex
	charges map[uuid.UUID]*charge.Charge

	GetByIDCalls int

	CreateFunc         func(ctx context.Context, c *charge.Charge) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*charge.Charge, error)
	UpdateFunc         func(ctx context.Context, c *charge.Charge) error
	ListByCustomerFunc func(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*charge.Charge, error)
}

func NewMockChargeRepository() *MockChargeRepository {
	return &MockChargeRepository{charges: make(map[uuid.UUID]*charge.Charge)}
}

func (m *MockChargeRepository) Create(ctx context.Context, c *charge.Charge) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.charges[c.ID] = &cp
	return nil
}

func (m *MockChargeRepository) GetByID(ctx context.Context, id uuid.UUID) (*charge.Charge, error) {
	m.mu.Lock()
	m.GetByIDCalls++
	m.mu.Unlock()
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charges[id]
	if !ok {
		return nil, domainErrors.ErrChargeNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockChargeRepository) Update(ctx context.Context, c *charge.Charge) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.charges[c.ID]; !ok {
		return domainErrors.ErrChargeNotFound
	}
	cp := *c
	m.charges[c.ID] = &cp
	return nil
}

func (m *MockChargeRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*charge.Charge, error) {
	if m.ListByCustomerFunc != nil {
		return m.ListByCustomerFunc(ctx, customerID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*charge.Charge, 0)
	for _, c := range m.charges {
		if c.CustomerID == customerID {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

// --- Customer Repository Mock ---

// MockCustomerRepository is a mock implementation of customer.Repository.
type MockCustomerRepository struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*customer.Customer

	GetByIDCalls int

	CreateFunc        func(ctx context.Context, c *customer.Customer) error
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*customer.Customer, error)
	GetByDocumentFunc func(ctx context.Context, document string) (*customer.Customer, error)
	ListFunc          func(ctx context.Context) ([]*customer.Customer, error)
	UpdateFunc        func(ctx context.Context, c *customer.Customer) error
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{customers: make(map[uuid.UUID]*customer.Customer)}
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	m.mu.Lock()
	m.GetByIDCalls++
	m.mu.Unlock()
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, domainErrors.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrCustomerNotFound
}

func (m *MockCustomerRepository) GetByDocument(ctx context.Context, document string) (*customer.Customer, error) {
	if m.GetByDocumentFunc != nil {
		return m.GetByDocumentFunc(ctx, document)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Document == document {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrCustomerNotFound
}

func (m *MockCustomerRepository) List(ctx context.Context) ([]*customer.Customer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*customer.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		cp := *c
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[c.ID]; !ok {
		return domainErrors.ErrCustomerNotFound
	}
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[id]; !ok {
		return domainErrors.ErrCustomerNotFound
	}
	delete(m.customers, id)
	return nil
}

// --- Cache Mock ---

// MockCache is an in-memory implementation of the service Cache port.
// Error fields inject failures; counters record traffic for assertions.
type MockCache struct {
	mu      sync.Mutex
	entries map[string][]byte

	GetErr    error
	SetErr    error
	DeleteErr error

	// DeleteFunc, when set, replaces the default delete behavior.
	DeleteFunc func(ctx context.Context, key string) error

	Gets    int
	Sets    int
	Deletes int
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, service.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.entries[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.Deletes++
	fn := m.DeleteFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.entries, key)
	return nil
}

// Contains reports whether the key currently has an entry.
func (m *MockCache) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Put seeds an entry directly, bypassing counters.
func (m *MockCache) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// --- Transactor Mock ---

// MockTransactor runs the function inline and tracks whether a
// transaction is currently open, so tests can assert what happens
// relative to the commit point.
type MockTransactor struct {
	mu    sync.Mutex
	open  bool
	Calls int

	Err error
}

func NewMockTransactor() *MockTransactor {
	return &MockTransactor{}
}

func (m *MockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.Calls++
	m.open = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.open = false
		m.mu.Unlock()
	}()
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// Open reports whether a transaction is in flight.
func (m *MockTransactor) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// --- Notification Dispatcher Mock ---

// MockDispatcher records dispatched charge IDs.
type MockDispatcher struct {
	mu   sync.Mutex
	Sent []uuid.UUID

	SendFunc func(ctx context.Context, chargeID uuid.UUID) error
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) SendPaymentNotification(ctx context.Context, chargeID uuid.UUID) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, chargeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, chargeID)
	return nil
}
