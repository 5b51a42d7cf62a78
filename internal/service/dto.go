package service

import (
	"time"

	"github.com/rafaelduarte/charges/internal/domain/charge"
	"github.com/rafaelduarte/charges/internal/domain/customer"
)

// ChargeResponse is the projection of a charge returned to callers and
// stored in the cache. Method-specific fields are populated only for
// the matching payment method.
type ChargeResponse struct {
	ChargeID      string `json:"charge_id"`
	CustomerID    string `json:"customer_id"`
	PayerName     string `json:"payer_name"`
	PayerDocument string `json:"payer_document"`
	AmountCents   int64  `json:"amount"`
	Description   string `json:"description,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`

	// Pix
	PixKey         string     `json:"pix_key,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	// Credit card
	CardNumber     string `json:"card_number,omitempty"`
	CardHolderName string `json:"card_holder_name,omitempty"`
	Installments   int    `json:"installments,omitempty"`

	// Bank slip
	BankSlipCode string     `json:"bank_slip_code,omitempty"`
	BankSlipURL  string     `json:"bank_slip_url,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ProjectCharge converts a charge to its response projection. The
// switch re-discriminates on the attached details so a projection can
// never leak fields from a non-matching method, whatever the stored
// row happened to contain.
func ProjectCharge(c *charge.Charge) *ChargeResponse {
	resp := &ChargeResponse{
		ChargeID:      c.ID.String(),
		CustomerID:    c.CustomerID.String(),
		PayerName:     c.PayerName,
		PayerDocument: c.PayerDocument,
		AmountCents:   c.AmountCents,
		Description:   c.Description,
		PaymentMethod: string(c.Method()),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
	}

	switch d := c.Details.(type) {
	case charge.Pix:
		resp.PixKey = d.Key
		expires := d.ExpiresAt
		resp.ExpirationDate = &expires
	case charge.Card:
		resp.CardNumber = d.MaskedNumber
		resp.CardHolderName = d.HolderName
		resp.Installments = d.Installments
	case charge.BankSlip:
		resp.BankSlipCode = d.Code
		resp.BankSlipURL = d.URL
		due := d.DueAt
		resp.DueDate = &due
	}

	return resp
}

// CustomerResponse is the projection of a customer returned to callers
// and stored in the cache.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Document  string    `json:"document"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectCustomer converts a customer to its response projection.
func ProjectCustomer(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Document:  c.Document,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
