package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
)

type UnitHandler struct {
	unitService *service.UnitService
	logger      *zap.Logger
}

func NewUnitHandler(unitService *service.UnitService, logger *zap.Logger) *UnitHandler {
	return &UnitHandler{
		unitService: unitService,
		logger:      logger,
	}
}

// List godoc
// @Summary List measurement units
// @Tags Units
// @Produce json
// @Success 200 {array} domain.Unit
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /units [get]
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	units, err := h.unitService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list units", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, units)
}

// Create godoc
// @Summary Create a measurement unit
// @Description Add a unit to the library. Names are trimmed and must be unique.
// @Tags Units
// @Accept json
// @Produce json
// @Param request body domain.CreateUnitRequest true "Unit name"
// @Success 201 {object} domain.Unit
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Unit already exists"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /units [post]
func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	unit, err := h.unitService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, unit)
}

// Match godoc
// @Summary Match a free-text unit string
// @Description Resolve a raw unit string against the library. A miss returns matched false, not an error.
// @Tags Units
// @Accept json
// @Produce json
// @Param request body domain.MatchUnitRequest true "Raw unit string"
// @Success 200 {object} domain.UnitMatchResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /units/match [post]
func (h *UnitHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req domain.MatchUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.unitService.Match(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
