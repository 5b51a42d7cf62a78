package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafaelduarte/charges/internal/domain/customer"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
)

const customerColumns = `id, name, email, document, phone, created_at, updated_at`

// CustomerRepository implements customer.Repository using PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new customer. Unique violations on email or
// document map to the corresponding conflict error.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	var phone *string
	if c.Phone != "" {
		phone = &c.Phone
	}

	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO customers (id, name, email, document, phone, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.Name, c.Email, c.Document, phone, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapUniqueViolation(err, fmt.Errorf("insert customer: %w", err))
	}
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return r.scanCustomer(r.db(ctx).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

// GetByEmail retrieves a customer by email.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.scanCustomer(r.db(ctx).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = $1`, email))
}

// GetByDocument retrieves a customer by document.
func (r *CustomerRepository) GetByDocument(ctx context.Context, document string) (*customer.Customer, error) {
	return r.scanCustomer(r.db(ctx).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE document = $1`, document))
}

// List lists all customers, newest first.
func (r *CustomerRepository) List(ctx context.Context) ([]*customer.Customer, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []*customer.Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Update updates an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	var phone *string
	if c.Phone != "" {
		phone = &c.Phone
	}

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE customers SET name=$1, email=$2, document=$3, phone=$4, updated_at=$5
		 WHERE id=$6`,
		c.Name, c.Email, c.Document, phone, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return mapUniqueViolation(err, fmt.Errorf("update customer: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCustomerNotFound
	}
	return nil
}

// Delete removes a customer; the charges FK cascades.
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) scanCustomer(s scanner) (*customer.Customer, error) {
	c := &customer.Customer{}
	var phone *string
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Document, &phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	if phone != nil {
		c.Phone = *phone
	}
	return c, nil
}

// mapUniqueViolation translates 23505 on the customers unique indexes
// into the matching conflict error; any other error returns fallback.
func mapUniqueViolation(err error, fallback error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "customers_email_key":
			return domainErrors.ErrEmailAlreadyExists
		case "customers_document_key":
			return domainErrors.ErrDocumentAlreadyExists
		}
	}
	return fallback
}
