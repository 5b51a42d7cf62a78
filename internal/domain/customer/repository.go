package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for customer persistence
type Repository interface {
	// Create inserts a new customer
	Create(ctx context.Context, c *Customer) error

	// GetByID retrieves a customer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// GetByEmail retrieves a customer by email
	GetByEmail(ctx context.Context, email string) (*Customer, error)

	// GetByDocument retrieves a customer by document
	GetByDocument(ctx context.Context, document string) (*Customer, error)

	// List lists all customers ordered by creation time, newest first
	List(ctx context.Context) ([]*Customer, error)

	// Update updates an existing customer
	Update(ctx context.Context, c *Customer) error

	// Delete removes a customer; owned charges are removed by cascade
	Delete(ctx context.Context, id uuid.UUID) error
}
