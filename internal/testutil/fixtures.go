package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	"github.com/rafaelduarte/charges/internal/domain/customer"
)

func NewTestCustomer(name, email, document string) *customer.Customer {
	now := time.Now()
	return &customer.Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Document:  document,
		Phone:     "+5511999990000",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestPixCharge(customerID uuid.UUID, amountCents int64) *charge.Charge {
	now := time.Now()
	return &charge.Charge{
		ID:            uuid.New(),
		CustomerID:    customerID,
		PayerName:     "Ana Souza",
		PayerDocument: "12345678901",
		AmountCents:   amountCents,
		Description:   "test charge",
		Status:        charge.StatusPending,
		Details: charge.Pix{
			Key:       "pix-abc123def456g",
			ExpiresAt: now.Add(24 * time.Hour),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestCardCharge(customerID uuid.UUID, amountCents int64) *charge.Charge {
	now := time.Now()
	return &charge.Charge{
		ID:            uuid.New(),
		CustomerID:    customerID,
		PayerName:     "Ana Souza",
		PayerDocument: "12345678901",
		AmountCents:   amountCents,
		Status:        charge.StatusPending,
		Details: charge.Card{
			MaskedNumber: "************1111",
			Expiry:       "12/30",
			HolderName:   "ANA SOUZA",
			Installments: 3,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestBankSlipCharge(customerID uuid.UUID, amountCents int64) *charge.Charge {
	now := time.Now()
	c := &charge.Charge{
		ID:            uuid.New(),
		CustomerID:    customerID,
		PayerName:     "Ana Souza",
		PayerDocument: "12345678901",
		AmountCents:   amountCents,
		Status:        charge.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.Details = charge.BankSlip{
		Code:  "00190500954014481606906809350314337370000000100",
		URL:   "https://boleto.example.com/" + c.ID.String(),
		DueAt: now.Add(72 * time.Hour),
	}
	return c
}

func StrPtr(s string) *string {
	return &s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
