package controller

import "time"

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string IDs, validation tags).
// Controllers convert them to service layer requests before calling
// business logic. Responses reuse the service projections directly,
// since those are the exact shapes served from the cache.

// CreateCustomerRequest holds the input for registering a customer.
type CreateCustomerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Document string `json:"document" validate:"required,min=11,max=14"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// UpdateCustomerRequest holds the partial input for updating a
// customer. Absent fields keep their current value.
type UpdateCustomerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Document *string `json:"document,omitempty" validate:"omitempty,min=11,max=14"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// CreateChargeRequest holds the input for creating a charge. Amount is
// in minor units. Card fields are mandatory only when the payment
// method is credit_card; the expiry is MM/YY and the CVV is used for
// authorization and never stored or echoed back.
type CreateChargeRequest struct {
	CustomerID    string `json:"customer_id" validate:"required,uuid"`
	PayerName     string `json:"payer_name" validate:"required,max=120"`
	PayerDocument string `json:"payer_document" validate:"required,min=11,max=14"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Description   string `json:"description,omitempty" validate:"omitempty,max=255"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=pix credit_card bank_slip"`

	CardNumber     string `json:"card_number,omitempty" validate:"required_if=PaymentMethod credit_card,omitempty,min=13,max=19,numeric"`
	CardExpiry     string `json:"card_expiry,omitempty" validate:"required_if=PaymentMethod credit_card,omitempty,card_expiry"`
	CardCVV        string `json:"card_cvv,omitempty" validate:"required_if=PaymentMethod credit_card,omitempty,min=3,max=4,numeric"`
	CardHolderName string `json:"card_holder_name,omitempty" validate:"required_if=PaymentMethod credit_card"`
	Installments   int    `json:"installments,omitempty" validate:"omitempty,min=1,max=12"`

	DueDate *time.Time `json:"due_date,omitempty"`
}

// UpdateChargeStatusRequest holds the target status for a charge.
type UpdateChargeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid expired cancelled failed"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
