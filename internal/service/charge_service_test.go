package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
	"github.com/rafaelduarte/charges/internal/infrastructure/observability"
	. "github.com/rafaelduarte/charges/internal/service"
	"github.com/rafaelduarte/charges/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

func setupChargeService() (*ChargeService, *testutil.MockChargeRepository, *testutil.MockCustomerRepository, *testutil.MockCache, *testutil.MockDispatcher) {
	chargeRepo := testutil.NewMockChargeRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	cache := testutil.NewMockCache()
	dispatcher := testutil.NewMockDispatcher()

	svc := NewChargeService(chargeRepo, customerRepo, cache, dispatcher, testutil.NewMockTransactor(), nil, 300*time.Second, zerolog.Nop())
	return svc, chargeRepo, customerRepo, cache, dispatcher
}

func registerCustomer(t *testing.T, repo *testutil.MockCustomerRepository) uuid.UUID {
	t.Helper()
	cust := testutil.NewTestCustomer("Ana Souza", "ana@example.com", "12345678901")
	require.NoError(t, repo.Create(context.Background(), cust))
	return cust.ID
}

func pixRequest(customerID uuid.UUID) CreateChargeRequest {
	return CreateChargeRequest{
		CustomerID:    customerID,
		PayerName:     "Ana Souza",
		PayerDocument: "12345678901",
		AmountCents:   15000,
		Description:   "order 42",
		Method:        charge.MethodPix,
	}
}

// --- CreateCharge Tests ---

func TestCreateCharge_Pix_Success(t *testing.T) {
	svc, chargeRepo, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	resp, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)

	assert.Equal(t, customerID.String(), resp.CustomerID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "pix", resp.PaymentMethod)
	assert.Equal(t, int64(15000), resp.AmountCents)
	assert.NotEmpty(t, resp.PixKey)
	require.NotNil(t, resp.ExpirationDate)
	assert.Empty(t, resp.CardNumber)
	assert.Empty(t, resp.BankSlipCode)

	// Persisted to the store.
	id, err := uuid.Parse(resp.ChargeID)
	require.NoError(t, err)
	stored, err := chargeRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPending, stored.Status)

	// Creation never writes the cache; the first read populates it.
	assert.Equal(t, 0, cache.Sets)
	assert.False(t, cache.Contains("charge:"+resp.ChargeID))
}

func TestCreateCharge_Card_Success(t *testing.T) {
	svc, _, customerRepo, _, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	req := pixRequest(customerID)
	req.Method = charge.MethodCard
	req.CardNumber = "4111111111111111"
	req.CardExpiry = "12/30"
	req.CardCVV = "123"
	req.CardHolderName = "ANA SOUZA"
	req.Installments = 6

	resp, err := svc.CreateCharge(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "credit_card", resp.PaymentMethod)
	assert.Equal(t, "************1111", resp.CardNumber)
	assert.Equal(t, "ANA SOUZA", resp.CardHolderName)
	assert.Equal(t, 6, resp.Installments)
	assert.Empty(t, resp.PixKey)
	assert.Nil(t, resp.DueDate)
}

func TestCreateCharge_BankSlip_Success(t *testing.T) {
	svc, _, customerRepo, _, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	req := pixRequest(customerID)
	req.Method = charge.MethodBankSlip

	resp, err := svc.CreateCharge(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "bank_slip", resp.PaymentMethod)
	assert.Len(t, resp.BankSlipCode, 47)
	assert.Equal(t, "https://boleto.example.com/"+resp.ChargeID, resp.BankSlipURL)
	require.NotNil(t, resp.DueDate)
}

func TestCreateCharge_UnknownCustomer(t *testing.T) {
	svc, chargeRepo, _, _, _ := setupChargeService()
	ctx := context.Background()

	// Nothing may reach the store when the customer is unknown.
	chargeRepo.CreateFunc = func(ctx context.Context, c *charge.Charge) error {
		t.Fatal("charge must not be persisted for an unknown customer")
		return nil
	}

	_, err := svc.CreateCharge(ctx, pixRequest(uuid.New()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrCustomerNotFound))
}

func TestCreateCharge_RepoFailurePropagates(t *testing.T) {
	svc, chargeRepo, customerRepo, _, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	chargeRepo.CreateFunc = func(ctx context.Context, c *charge.Charge) error {
		return errors.New("connection reset")
	}

	_, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist charge")
}

// --- GetChargeByID Tests ---

func TestGetChargeByID_CacheMissThenHit(t *testing.T) {
	svc, chargeRepo, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	readsBefore := chargeRepo.GetByIDCalls

	// First read misses, hits the store and populates the cache.
	first, err := svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, chargeRepo.GetByIDCalls, readsBefore+1)
	assert.True(t, cache.Contains("charge:"+id.String()))

	// Second read is served from cache without touching the store.
	second, err := svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, chargeRepo.GetByIDCalls, readsBefore+1, "second read must not hit the store")
	assert.Equal(t, first, second, "reads must be idempotent")
}

func TestGetChargeByID_NotFound(t *testing.T) {
	svc, _, _, _, _ := setupChargeService()

	_, err := svc.GetChargeByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrChargeNotFound))
}

func TestGetChargeByID_CacheReadFailureFallsBackToStore(t *testing.T) {
	svc, _, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)

	cache.GetErr = errors.New("redis: connection refused")

	resp, err := svc.GetChargeByID(ctx, uuid.MustParse(created.ChargeID))
	require.NoError(t, err, "cache failure must never fail the read")
	assert.Equal(t, created.ChargeID, resp.ChargeID)
}

func TestGetChargeByID_CacheWriteFailureIsAbsorbed(t *testing.T) {
	svc, _, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)

	cache.SetErr = errors.New("redis: oom")

	resp, err := svc.GetChargeByID(ctx, uuid.MustParse(created.ChargeID))
	require.NoError(t, err)
	assert.Equal(t, created.ChargeID, resp.ChargeID)
}

func TestGetChargeByID_CorruptCacheEntryIsDiscarded(t *testing.T) {
	svc, _, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	key := "charge:" + created.ChargeID

	cache.Put(key, []byte("{not json"))

	resp, err := svc.GetChargeByID(ctx, uuid.MustParse(created.ChargeID))
	require.NoError(t, err)
	assert.Equal(t, created.ChargeID, resp.ChargeID)

	// The bad entry was overwritten with the fresh projection.
	raw, err := cache.Get(ctx, key)
	require.NoError(t, err)
	var cached ChargeResponse
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, created.ChargeID, cached.ChargeID)
}

// --- UpdateChargeStatus Tests ---

func TestUpdateChargeStatus_InvalidatesCache(t *testing.T) {
	svc, _, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)
	key := "charge:" + id.String()

	// Populate the cache, then settle.
	_, err = svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	require.True(t, cache.Contains(key))

	updated, err := svc.UpdateChargeStatus(ctx, id, charge.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPaid, updated.Status)
	assert.False(t, cache.Contains(key), "update must delete the cached projection")

	// The next read rebuilds from the store and sees the new status.
	resp, err := svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)
}

func TestUpdateChargeStatus_InvalidTransition(t *testing.T) {
	svc, _, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	_, err = svc.UpdateChargeStatus(ctx, id, charge.StatusPaid)
	require.NoError(t, err)

	deletesBefore := cache.Deletes
	_, err = svc.UpdateChargeStatus(ctx, id, charge.StatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrInvalidStateTransition))
	assert.Equal(t, deletesBefore, cache.Deletes, "a rejected transition must not touch the cache")
}

func TestUpdateChargeStatus_NotFound(t *testing.T) {
	svc, _, _, _, _ := setupChargeService()

	_, err := svc.UpdateChargeStatus(context.Background(), uuid.New(), charge.StatusPaid)
	assert.True(t, errors.Is(err, domainErrors.ErrChargeNotFound))
}

func TestUpdateChargeStatus_CacheDeleteFailureIsAbsorbed(t *testing.T) {
	svc, _, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	cache.DeleteErr = errors.New("redis: connection refused")

	updated, err := svc.UpdateChargeStatus(ctx, id, charge.StatusPaid)
	require.NoError(t, err, "invalidation failure must not fail the update")
	assert.Equal(t, charge.StatusPaid, updated.Status)
}

func TestUpdateChargeStatus_InvalidatesOnlyAfterCommit(t *testing.T) {
	chargeRepo := testutil.NewMockChargeRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	cache := testutil.NewMockCache()
	tx := testutil.NewMockTransactor()
	svc := NewChargeService(chargeRepo, customerRepo, cache, testutil.NewMockDispatcher(), tx, nil, 300*time.Second, zerolog.Nop())

	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)
	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	// A delete landing mid-transaction would let a racing reader
	// re-cache the pre-commit row and serve it until the TTL expires.
	deleted := false
	cache.DeleteFunc = func(ctx context.Context, key string) error {
		deleted = true
		assert.False(t, tx.Open(), "cache delete must wait for the transaction to commit")
		assert.Equal(t, "charge:"+id.String(), key)
		return nil
	}

	_, err = svc.UpdateChargeStatus(ctx, id, charge.StatusPaid)
	require.NoError(t, err)
	assert.True(t, deleted, "settling must invalidate the cached projection")
	assert.Equal(t, 1, tx.Calls)
}

func TestUpdateChargeStatus_TransactionFailureSkipsInvalidation(t *testing.T) {
	chargeRepo := testutil.NewMockChargeRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	cache := testutil.NewMockCache()
	tx := testutil.NewMockTransactor()
	svc := NewChargeService(chargeRepo, customerRepo, cache, testutil.NewMockDispatcher(), tx, nil, 300*time.Second, zerolog.Nop())

	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)
	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	tx.Err = errors.New("begin tx: connection refused")

	_, err = svc.UpdateChargeStatus(ctx, id, charge.StatusPaid)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Deletes, "a failed update must not touch the cache")

	stored, err := chargeRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPending, stored.Status)
}

// --- Metrics ---

func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			for _, l := range m.Label {
				if l.GetValue() == labelValue {
					return m.Counter.GetValue()
				}
			}
		}
	}
	return 0
}

func TestChargeCounters_TrackCreatesAndStatusUpdates(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("charges_test", reg)

	chargeRepo := testutil.NewMockChargeRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	svc := NewChargeService(chargeRepo, customerRepo, testutil.NewMockCache(), testutil.NewMockDispatcher(), testutil.NewMockTransactor(), metrics, 300*time.Second, zerolog.Nop())

	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "charges_test_charges_created_total", "pix"))

	_, err = svc.UpdateChargeStatus(ctx, uuid.MustParse(created.ChargeID), charge.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "charges_test_charge_status_updates_total", "paid"))

	// A rejected transition counts nothing.
	_, err = svc.UpdateChargeStatus(ctx, uuid.MustParse(created.ChargeID), charge.StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, 0.0, counterValue(t, reg, "charges_test_charge_status_updates_total", "cancelled"))
}

// --- SimulatePayment Tests ---

func TestSimulatePayment_DispatchesNotification(t *testing.T) {
	svc, _, customerRepo, _, dispatcher := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	require.NoError(t, svc.SimulatePayment(ctx, id))
	require.Len(t, dispatcher.Sent, 1)
	assert.Equal(t, id, dispatcher.Sent[0])

	// Dispatch alone does not settle the charge.
	resp, err := svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
}

func TestSimulatePayment_UnknownCharge(t *testing.T) {
	svc, _, _, _, dispatcher := setupChargeService()

	err := svc.SimulatePayment(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, domainErrors.ErrChargeNotFound))
	assert.Empty(t, dispatcher.Sent)
}

func TestSimulatePayment_DispatcherFailurePropagates(t *testing.T) {
	svc, _, customerRepo, _, dispatcher := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)

	dispatcher.SendFunc = func(ctx context.Context, chargeID uuid.UUID) error {
		return errors.New("stream unavailable")
	}

	err = svc.SimulatePayment(ctx, uuid.MustParse(created.ChargeID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue payment notification")
}

// --- ListChargesByCustomer Tests ---

func TestListChargesByCustomer(t *testing.T) {
	svc, _, customerRepo, _, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateCharge(ctx, pixRequest(customerID))
		require.NoError(t, err)
	}

	charges, err := svc.ListChargesByCustomer(ctx, customerID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, charges, 3)
}

func TestListChargesByCustomer_UnknownCustomer(t *testing.T) {
	svc, _, _, _, _ := setupChargeService()

	_, err := svc.ListChargesByCustomer(context.Background(), uuid.New(), 0, 0)
	assert.True(t, errors.Is(err, domainErrors.ErrCustomerNotFound))
}

// --- End-to-end lifecycle ---

func TestChargeLifecycle_PixCreateReadSettleRead(t *testing.T) {
	svc, chargeRepo, customerRepo, cache, _ := setupChargeService()
	ctx := context.Background()
	customerID := registerCustomer(t, customerRepo)

	created, err := svc.CreateCharge(ctx, pixRequest(customerID))
	require.NoError(t, err)
	id := uuid.MustParse(created.ChargeID)

	// Warm the cache and verify reads stick to it.
	_, err = svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	reads := chargeRepo.GetByIDCalls
	for i := 0; i < 5; i++ {
		resp, err := svc.GetChargeByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
	}
	assert.Equal(t, reads, chargeRepo.GetByIDCalls)

	// Settle and confirm the change is visible immediately.
	_, err = svc.UpdateChargeStatus(ctx, id, charge.StatusPaid)
	require.NoError(t, err)
	assert.False(t, cache.Contains("charge:"+id.String()))

	resp, err := svc.GetChargeByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)
	assert.NotEmpty(t, resp.PixKey, "method details must survive the round trip")
}
