package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
)

type ContractHandler struct {
	contractService *service.ContractService
	voService       *service.VariationOrderService
	logger          *zap.Logger
}

func NewContractHandler(contractService *service.ContractService, voService *service.VariationOrderService, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		voService:       voService,
		logger:          logger,
	}
}

// List godoc
// @Summary List contracts
// @Description Get paginated list of submitted contracts with optional filters
// @Tags Contracts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param projectId query int false "Filter by project ID"
// @Param subcontractorId query int false "Filter by subcontractor ID"
// @Param search query string false "Search in contract number and description"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ContractDTO}
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts [get]
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	projectID, _ := strconv.ParseInt(r.URL.Query().Get("projectId"), 10, 64)
	subcontractorID, _ := strconv.ParseInt(r.URL.Query().Get("subcontractorId"), 10, 64)
	search := r.URL.Query().Get("search")

	contracts, total, err := h.contractService.List(r.Context(), page, pageSize, projectID, subcontractorID, search)
	if err != nil {
		h.logger.Error("failed to list contracts", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondPaginated(w, contracts, total, page, pageSize)
}

// GetByID godoc
// @Summary Get contract by ID
// @Description Get a contract with its BOQ items ordered by building and position
// @Tags Contracts
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} domain.ContractDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id} [get]
func (h *ContractHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID: must be an integer")
		return
	}

	contract, err := h.contractService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contract)
}

// UpdateStatus godoc
// @Summary Change contract status
// @Description Move a contract between active, completed and terminated
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Param request body domain.UpdateContractStatusRequest true "New status"
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/status [patch]
func (h *ContractHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID: must be an integer")
		return
	}

	var req domain.UpdateContractStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.contractService.UpdateStatus(r.Context(), id, domain.ContractStatus(req.Status)); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateBuildingItems godoc
// @Summary Re-submit a building's BOQ items
// @Description Replace or extend one building sheet of a contract and re-derive the contract total
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Param buildingId path int true "Building ID"
// @Param request body domain.UpdateContractItemsRequest true "Building items"
// @Success 200 {object} domain.ContractDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/buildings/{buildingId}/items [put]
func (h *ContractHandler) UpdateBuildingItems(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID: must be an integer")
		return
	}

	buildingID, err := strconv.ParseInt(chi.URLParam(r, "buildingId"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid building ID: must be an integer")
		return
	}

	var req domain.UpdateContractItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	contract, err := h.contractService.UpdateBuildingItems(r.Context(), id, buildingID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contract)
}

// ListVariationOrders godoc
// @Summary List a contract's variation orders
// @Description List variation orders attached to a contract, newest first
// @Tags Contracts
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {array} domain.VariationOrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/variation-orders [get]
func (h *ContractHandler) ListVariationOrders(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID: must be an integer")
		return
	}

	orders, err := h.voService.ListByContract(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// parsePagination reads page and pageSize query params with the shared defaults.
func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}
