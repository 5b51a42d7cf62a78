package charge

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for charge persistence
type Repository interface {
	// Create inserts a new charge
	Create(ctx context.Context, c *Charge) error

	// GetByID retrieves a charge by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Charge, error)

	// Update updates an existing charge
	Update(ctx context.Context, c *Charge) error

	// ListByCustomer lists charges for a customer, newest first
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Charge, error)
}
