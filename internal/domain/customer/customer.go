package customer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/errors"
)

// Customer represents a registered customer that charges are issued against.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Document  string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer creates a new customer
func NewCustomer(name, email, document, phone string) (*Customer, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if strings.TrimSpace(email) == "" {
		return nil, errors.NewValidationError("email", "cannot be empty")
	}
	if strings.TrimSpace(document) == "" {
		return nil, errors.NewValidationError("document", "cannot be empty")
	}

	now := time.Now()
	return &Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Document:  document,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update holds the mutable fields of a customer. Nil fields are left untouched.
type Update struct {
	Name     *string
	Email    *string
	Document *string
	Phone    *string
}

// Apply merges the update into the customer.
func (c *Customer) Apply(u Update) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Document != nil {
		c.Document = *u.Document
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	c.UpdatedAt = time.Now()
}
