package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/service"
)

type VariationOrderHandler struct {
	voService *service.VariationOrderService
	logger    *zap.Logger
}

func NewVariationOrderHandler(voService *service.VariationOrderService, logger *zap.Logger) *VariationOrderHandler {
	return &VariationOrderHandler{
		voService: voService,
		logger:    logger,
	}
}

// GetByID godoc
// @Summary Get variation order by ID
// @Description Get a variation order with its BOQ items
// @Tags VariationOrders
// @Produce json
// @Param id path int true "Variation order ID"
// @Success 200 {object} domain.VariationOrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /variation-orders/{id} [get]
func (h *VariationOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid variation order ID: must be an integer")
		return
	}

	vo, err := h.voService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, vo)
}

// Approve godoc
// @Summary Approve a variation order
// @Description Approve a pending variation order and fold its amount into the contract total
// @Tags VariationOrders
// @Produce json
// @Param id path int true "Variation order ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Variation order is not pending"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /variation-orders/{id}/approve [post]
func (h *VariationOrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.voService.Approve)
}

// Reject godoc
// @Summary Reject a variation order
// @Description Reject a pending variation order without touching the contract total
// @Tags VariationOrders
// @Produce json
// @Param id path int true "Variation order ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Variation order is not pending"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /variation-orders/{id}/reject [post]
func (h *VariationOrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.voService.Reject)
}

func (h *VariationOrderHandler) resolve(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, id int64) error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid variation order ID: must be an integer")
		return
	}

	if err := decide(r.Context(), id); err != nil {
		h.logger.Error("failed to resolve variation order", zap.Error(err), zap.Int64("variation_order_id", id))
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
