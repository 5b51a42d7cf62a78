package charge

import (
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/errors"
)

// PaymentMethod is the payment instrument a charge is settled with.
type PaymentMethod string

const (
	MethodPix      PaymentMethod = "pix"
	MethodCard     PaymentMethod = "credit_card"
	MethodBankSlip PaymentMethod = "bank_slip"
)

// Valid reports whether the method is one of the supported instruments.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCard, MethodBankSlip:
		return true
	}
	return false
}

// Status represents the charge status in the state machine
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Valid reports whether the status is a known state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusExpired, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// MethodDetails holds the fields specific to one payment method.
// Exactly one concrete type is attached to a charge, matching its Method.
type MethodDetails interface {
	Method() PaymentMethod
}

// Pix holds the instant-transfer fields.
type Pix struct {
	Key       string
	ExpiresAt time.Time
}

func (Pix) Method() PaymentMethod { return MethodPix }

// Card holds the credit card fields. Only the masked number is ever
// kept; the CVV is consumed at creation time and discarded.
type Card struct {
	MaskedNumber string
	Expiry       string
	HolderName   string
	Installments int
}

func (Card) Method() PaymentMethod { return MethodCard }

// BankSlip holds the bank slip (boleto) fields.
type BankSlip struct {
	Code  string
	URL   string
	DueAt time.Time
}

func (BankSlip) Method() PaymentMethod { return MethodBankSlip }

// Charge represents a request for payment issued against a customer.
type Charge struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	PayerName     string
	PayerDocument string
	AmountCents   int64
	Description   string
	Status        Status
	Details       MethodDetails
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Method returns the payment method discriminant derived from the details.
func (c *Charge) Method() PaymentMethod {
	if c.Details == nil {
		return ""
	}
	return c.Details.Method()
}

// CanTransitionTo checks if the charge can transition to the given status.
// The source system allowed any status to move to any other; settlement
// here only ever moves a pending charge to a terminal state, so the
// table is deliberately stricter.
func (c *Charge) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusPaid,
			StatusExpired,
			StatusCancelled,
			StatusFailed,
		},
		StatusPaid:      {}, // Terminal state
		StatusExpired:   {}, // Terminal state
		StatusCancelled: {}, // Terminal state
		StatusFailed:    {}, // Terminal state
	}

	allowed, exists := transitions[c.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the charge to a new status
func (c *Charge) TransitionTo(newStatus Status) error {
	if !newStatus.Valid() {
		return errors.NewValidationError("status", "unknown status "+string(newStatus))
	}
	if !c.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(c.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	c.Status = newStatus
	c.UpdatedAt = time.Now()
	return nil
}

// MarkPaid transitions the charge to paid status
func (c *Charge) MarkPaid() error {
	return c.TransitionTo(StatusPaid)
}

// MarkCancelled transitions the charge to cancelled status
func (c *Charge) MarkCancelled() error {
	return c.TransitionTo(StatusCancelled)
}

// IsTerminal checks if the charge is in a terminal state
func (c *Charge) IsTerminal() bool {
	return c.Status != StatusPending
}
