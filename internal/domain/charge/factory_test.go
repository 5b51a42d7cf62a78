package charge

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRequest(method PaymentMethod) BuildRequest {
	return BuildRequest{
		PayerName:     "Ana Souza",
		PayerDocument: "12345678901",
		AmountCents:   15000,
		Description:   "order 42",
		Method:        method,
	}
}

func TestBuild_Pix(t *testing.T) {
	now := time.Now()
	customerID := uuid.New()

	c, err := Build(baseRequest(MethodPix), customerID, now)
	require.NoError(t, err)

	assert.Equal(t, customerID, c.CustomerID)
	assert.Equal(t, StatusPending, c.Status)
	assert.Equal(t, int64(15000), c.AmountCents)
	assert.Equal(t, now, c.CreatedAt)

	pix, ok := c.Details.(Pix)
	require.True(t, ok, "pix charge must carry Pix details, got %T", c.Details)
	assert.True(t, strings.HasPrefix(pix.Key, "pix-"))
	assert.Len(t, pix.Key, len("pix-")+13)
	for _, r := range pix.Key[4:] {
		assert.Contains(t, pixKeyAlphabet, string(r))
	}
	assert.Equal(t, now.Add(24*time.Hour), pix.ExpiresAt)
}

func TestBuild_PixKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		c, err := Build(baseRequest(MethodPix), uuid.New(), time.Now())
		require.NoError(t, err)
		key := c.Details.(Pix).Key
		assert.False(t, seen[key], "duplicate pix key %s", key)
		seen[key] = true
	}
}

func TestBuild_Card(t *testing.T) {
	req := baseRequest(MethodCard)
	req.CardNumber = "4111111111111111"
	req.CardExpiry = "12/30"
	req.CardCVV = "123"
	req.CardHolderName = "ANA SOUZA"
	req.Installments = 3

	c, err := Build(req, uuid.New(), time.Now())
	require.NoError(t, err)

	card, ok := c.Details.(Card)
	require.True(t, ok)
	assert.Equal(t, "************1111", card.MaskedNumber)
	assert.Equal(t, "12/30", card.Expiry)
	assert.Equal(t, "ANA SOUZA", card.HolderName)
	assert.Equal(t, 3, card.Installments)
}

func TestBuild_CardDefaultsToOneInstallment(t *testing.T) {
	req := baseRequest(MethodCard)
	req.CardNumber = "4111111111111111"
	req.CardExpiry = "12/30"
	req.CardCVV = "123"
	req.CardHolderName = "ANA SOUZA"

	c, err := Build(req, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Details.(Card).Installments)
}

func TestBuild_CardInstallmentsOutOfRange(t *testing.T) {
	for _, installments := range []int{-1, 13, 100} {
		req := baseRequest(MethodCard)
		req.CardNumber = "4111111111111111"
		req.CardExpiry = "12/30"
		req.CardCVV = "123"
		req.CardHolderName = "ANA SOUZA"
		req.Installments = installments

		_, err := Build(req, uuid.New(), time.Now())
		require.Error(t, err, "installments=%d", installments)
	}
}

func TestBuild_CardNeverRetainsCVVOrFullNumber(t *testing.T) {
	req := baseRequest(MethodCard)
	req.CardNumber = "4111111111111111"
	req.CardExpiry = "12/30"
	req.CardCVV = "987"
	req.CardHolderName = "ANA SOUZA"

	c, err := Build(req, uuid.New(), time.Now())
	require.NoError(t, err)

	card := c.Details.(Card)
	assert.NotContains(t, card.MaskedNumber, "4111")
	assert.NotEqual(t, req.CardNumber, card.MaskedNumber)
}

func TestBuild_BankSlip(t *testing.T) {
	now := time.Now()

	c, err := Build(baseRequest(MethodBankSlip), uuid.New(), now)
	require.NoError(t, err)

	slip, ok := c.Details.(BankSlip)
	require.True(t, ok)
	assert.Len(t, slip.Code, 47)
	for _, r := range slip.Code {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", r)
	}
	assert.Equal(t, "https://boleto.example.com/"+c.ID.String(), slip.URL)
	assert.Equal(t, now.Add(72*time.Hour), slip.DueAt)
}

func TestBuild_BankSlipHonorsRequestedDueDate(t *testing.T) {
	due := time.Now().Add(10 * 24 * time.Hour)
	req := baseRequest(MethodBankSlip)
	req.DueDate = &due

	c, err := Build(req, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, due, c.Details.(BankSlip).DueAt)
}

func TestBuild_InvalidMethod(t *testing.T) {
	_, err := Build(baseRequest(PaymentMethod("cash")), uuid.New(), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrInvalidPaymentMethod))
}

func TestBuild_NonPositiveAmount(t *testing.T) {
	for _, amount := range []int64{0, -100} {
		req := baseRequest(MethodPix)
		req.AmountCents = amount
		_, err := Build(req, uuid.New(), time.Now())
		require.Error(t, err, "amount=%d", amount)
	}
}

func TestBuild_NilCustomer(t *testing.T) {
	_, err := Build(baseRequest(MethodPix), uuid.Nil, time.Now())
	require.Error(t, err)
}

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		number string
		want   string
	}{
		{"4111111111111111", "************1111"},
		{"378282246310005", "***********0005"},
		{"1234", "1234"},
		{"123", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		got := MaskCardNumber(tt.number)
		assert.Equal(t, tt.want, got)
		assert.Len(t, got, len(tt.number), "mask must preserve length")
	}
}
