package charge

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/errors"
)

const (
	pixKeyLength     = 13
	pixKeyAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	bankSlipCodeLen  = 47
	bankSlipBaseURL  = "https://boleto.example.com/"
	pixExpiryWindow  = 24 * time.Hour
	bankSlipDueAfter = 3 * 24 * time.Hour
	maskRune         = '*'
)

// BuildRequest is the already-validated input the factory turns into a
// charge. Shape validation (name length, document pattern, the
// method-conditional required fields) happens at the boundary before
// the request reaches this package.
type BuildRequest struct {
	PayerName     string
	PayerDocument string
	AmountCents   int64
	Description   string
	Method        PaymentMethod

	// Card fields, required when Method is MethodCard.
	CardNumber     string
	CardExpiry     string
	CardCVV        string
	CardHolderName string
	Installments   int

	// Bank slip field, optional even when Method is MethodBankSlip.
	DueDate *time.Time
}

// Build constructs a fully populated pending charge for the given
// customer, filling exactly the detail group matching the requested
// payment method. It has no side effects beyond the returned value.
func Build(req BuildRequest, customerID uuid.UUID, now time.Time) (*Charge, error) {
	if req.AmountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if customerID == uuid.Nil {
		return nil, errors.NewValidationError("customer_id", "cannot be empty")
	}

	c := &Charge{
		ID:            uuid.New(),
		CustomerID:    customerID,
		PayerName:     req.PayerName,
		PayerDocument: req.PayerDocument,
		AmountCents:   req.AmountCents,
		Description:   req.Description,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch req.Method {
	case MethodPix:
		c.Details = Pix{
			Key:       generatePixKey(),
			ExpiresAt: now.Add(pixExpiryWindow),
		}

	case MethodCard:
		installments := req.Installments
		if installments == 0 {
			installments = 1
		}
		if installments < 1 || installments > 12 {
			return nil, errors.NewValidationError("installments", "must be between 1 and 12")
		}
		c.Details = Card{
			MaskedNumber: MaskCardNumber(req.CardNumber),
			Expiry:       req.CardExpiry,
			HolderName:   req.CardHolderName,
			Installments: installments,
		}

	case MethodBankSlip:
		due := now.Add(bankSlipDueAfter)
		if req.DueDate != nil {
			due = *req.DueDate
		}
		c.Details = BankSlip{
			Code:  generateBankSlipCode(),
			URL:   bankSlipBaseURL + c.ID.String(),
			DueAt: due,
		}

	default:
		return nil, errors.ErrInvalidPaymentMethod
	}

	return c, nil
}

// MaskCardNumber replaces every digit but the last four with '*',
// preserving the total length.
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat(string(maskRune), len(number)-4) + number[len(number)-4:]
}

// generatePixKey produces a random opaque key in the same simplified
// format the gateway has always emitted: "pix-" plus 13 base36 chars.
func generatePixKey() string {
	var b strings.Builder
	b.WriteString("pix-")
	for i := 0; i < pixKeyLength; i++ {
		b.WriteByte(pixKeyAlphabet[randomIndex(len(pixKeyAlphabet))])
	}
	return b.String()
}

// generateBankSlipCode produces a 47-digit settlement code.
func generateBankSlipCode() string {
	var b strings.Builder
	for i := 0; i < bankSlipCodeLen; i++ {
		b.WriteByte('0' + byte(randomIndex(10)))
	}
	return b.String()
}

func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails if the platform source is broken;
		// fall back to a fixed index rather than panicking mid-request.
		return 0
	}
	return int(v.Int64())
}
