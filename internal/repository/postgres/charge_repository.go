package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	domainErrors "github.com/rafaelduarte/charges/internal/domain/errors"
)

const chargeColumns = `id, customer_id, payer_name, payer_document, amount, description,
	        payment_method, status, pix_key, expiration_date,
	        card_number, card_expiry, card_holder_name, installments,
	        bank_slip_code, bank_slip_url, due_date, created_at, updated_at`

// ChargeRepository implements charge.Repository using PostgreSQL.
type ChargeRepository struct {
	pool *pgxpool.Pool
}

// NewChargeRepository creates a new ChargeRepository.
func NewChargeRepository(pool *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{pool: pool}
}

func (r *ChargeRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new charge.
func (r *ChargeRepository) Create(ctx context.Context, c *charge.Charge) error {
	row, err := newChargeRow(c)
	if err != nil {
		return err
	}

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO charges
		 (id, customer_id, payer_name, payer_document, amount, description,
		  payment_method, status, pix_key, expiration_date,
		  card_number, card_expiry, card_holder_name, installments,
		  bank_slip_code, bank_slip_url, due_date, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		row.ID, row.CustomerID, row.PayerName, row.PayerDocument, row.AmountCents, row.Description,
		row.PaymentMethod, row.Status, row.PixKey, row.ExpirationDate,
		row.CardNumber, row.CardExpiry, row.CardHolderName, row.Installments,
		row.BankSlipCode, row.BankSlipURL, row.DueDate, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert charge: %w", err)
	}
	return nil
}

// GetByID retrieves a charge by its ID.
func (r *ChargeRepository) GetByID(ctx context.Context, id uuid.UUID) (*charge.Charge, error) {
	return r.scanCharge(r.db(ctx).QueryRow(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE id = $1`, id))
}

// Update updates the mutable fields of an existing charge.
func (r *ChargeRepository) Update(ctx context.Context, c *charge.Charge) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE charges SET status=$1, updated_at=$2 WHERE id=$3`,
		string(c.Status), c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrChargeNotFound
	}
	return nil
}

// ListByCustomer lists charges for a customer, newest first.
func (r *ChargeRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*charge.Charge, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+chargeColumns+` FROM charges
		 WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		customerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	defer rows.Close()

	var charges []*charge.Charge
	for rows.Next() {
		c, err := r.scanCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

// scanCharge scans a charge from any source implementing the scanner interface.
func (r *ChargeRepository) scanCharge(s scanner) (*charge.Charge, error) {
	var row chargeRow
	err := s.Scan(
		&row.ID, &row.CustomerID, &row.PayerName, &row.PayerDocument, &row.AmountCents, &row.Description,
		&row.PaymentMethod, &row.Status, &row.PixKey, &row.ExpirationDate,
		&row.CardNumber, &row.CardExpiry, &row.CardHolderName, &row.Installments,
		&row.BankSlipCode, &row.BankSlipURL, &row.DueDate, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrChargeNotFound
		}
		return nil, fmt.Errorf("scan charge: %w", err)
	}
	return row.toDomain()
}
