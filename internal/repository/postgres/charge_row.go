package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
)

// chargeRow is the flat persisted form of a charge: one row with the
// method-specific columns nullable. The domain keeps method details as
// a sum type; this file is the single place the two shapes meet.
type chargeRow struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	PayerName     string
	PayerDocument string
	AmountCents   int64
	Description   *string
	PaymentMethod string
	Status        string

	PixKey         *string
	ExpirationDate *time.Time

	CardNumber     *string
	CardExpiry     *string
	CardHolderName *string
	Installments   *int

	BankSlipCode *string
	BankSlipURL  *string
	DueDate      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// newChargeRow flattens a domain charge into its persisted form.
// Columns belonging to the other two method groups stay NULL.
func newChargeRow(c *charge.Charge) (*chargeRow, error) {
	row := &chargeRow{
		ID:            c.ID,
		CustomerID:    c.CustomerID,
		PayerName:     c.PayerName,
		PayerDocument: c.PayerDocument,
		AmountCents:   c.AmountCents,
		PaymentMethod: string(c.Method()),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.Description != "" {
		row.Description = &c.Description
	}

	switch d := c.Details.(type) {
	case charge.Pix:
		row.PixKey = &d.Key
		expires := d.ExpiresAt
		row.ExpirationDate = &expires
	case charge.Card:
		row.CardNumber = &d.MaskedNumber
		row.CardExpiry = &d.Expiry
		row.CardHolderName = &d.HolderName
		installments := d.Installments
		row.Installments = &installments
	case charge.BankSlip:
		row.BankSlipCode = &d.Code
		row.BankSlipURL = &d.URL
		due := d.DueAt
		row.DueDate = &due
	default:
		return nil, domainErrors.ErrInvalidPaymentMethod
	}

	return row, nil
}

// toDomain rebuilds the sum type from the flat row, attaching only the
// detail group named by payment_method. Stray values in the other
// columns are ignored rather than leaked.
func (r *chargeRow) toDomain() (*charge.Charge, error) {
	c := &charge.Charge{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		PayerName:     r.PayerName,
		PayerDocument: r.PayerDocument,
		AmountCents:   r.AmountCents,
		Status:        charge.Status(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Description != nil {
		c.Description = *r.Description
	}

	switch charge.PaymentMethod(r.PaymentMethod) {
	case charge.MethodPix:
		d := charge.Pix{}
		if r.PixKey != nil {
			d.Key = *r.PixKey
		}
		if r.ExpirationDate != nil {
			d.ExpiresAt = *r.ExpirationDate
		}
		c.Details = d
	case charge.MethodCard:
		d := charge.Card{Installments: 1}
		if r.CardNumber != nil {
			d.MaskedNumber = *r.CardNumber
		}
		if r.CardExpiry != nil {
			d.Expiry = *r.CardExpiry
		}
		if r.CardHolderName != nil {
			d.HolderName = *r.CardHolderName
		}
		if r.Installments != nil {
			d.Installments = *r.Installments
		}
		c.Details = d
	case charge.MethodBankSlip:
		d := charge.BankSlip{}
		if r.BankSlipCode != nil {
			d.Code = *r.BankSlipCode
		}
		if r.BankSlipURL != nil {
			d.URL = *r.BankSlipURL
		}
		if r.DueDate != nil {
			d.DueAt = *r.DueDate
		}
		c.Details = d
	default:
		return nil, domainErrors.ErrInvalidPaymentMethod
	}

	return c, nil
}
