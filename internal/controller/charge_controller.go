package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rafaelduarte/charges/internal/domain/charge"
	"github.com/rafaelduarte/charges/internal/service"
)

// ChargeController handles charge-related HTTP requests.
type ChargeController struct {
	chargeService *service.ChargeService
}

// NewChargeController creates a new ChargeController.
func NewChargeController(chargeService *service.ChargeService) *ChargeController {
	return &ChargeController{chargeService: chargeService}
}

// Create handles POST /api/v1/charges
func (h *ChargeController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChargeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid customer_id", Code: "invalid_id"})
		return
	}

	resp, err := h.chargeService.CreateCharge(r.Context(), service.CreateChargeRequest{
		CustomerID:     customerID,
		PayerName:      req.PayerName,
		PayerDocument:  req.PayerDocument,
		AmountCents:    req.Amount,
		Description:    req.Description,
		Method:         charge.PaymentMethod(req.PaymentMethod),
		CardNumber:     req.CardNumber,
		CardExpiry:     req.CardExpiry,
		CardCVV:        req.CardCVV,
		CardHolderName: req.CardHolderName,
		Installments:   req.Installments,
		DueDate:        req.DueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/v1/charges/{id}
func (h *ChargeController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid charge id", Code: "invalid_id"})
		return
	}

	resp, err := h.chargeService.GetChargeByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /api/v1/charges/{id}/status
func (h *ChargeController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid charge id", Code: "invalid_id"})
		return
	}

	var req UpdateChargeStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.chargeService.UpdateChargeStatus(r.Context(), id, charge.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, service.ProjectCharge(c))
}

// SimulatePayment handles POST /api/v1/charges/{id}/simulate-payment
func (h *ChargeController) SimulatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid charge id", Code: "invalid_id"})
		return
	}

	if err := h.chargeService.SimulatePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "notification queued"})
}

// ListByCustomer handles GET /api/v1/customers/{id}/charges
func (h *ChargeController) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid customer id", Code: "invalid_id"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resp, err := h.chargeService.ListChargesByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
