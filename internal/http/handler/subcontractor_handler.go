package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
)

type SubcontractorHandler struct {
	subcontractorService *service.SubcontractorService
	logger               *zap.Logger
}

func NewSubcontractorHandler(subcontractorService *service.SubcontractorService, logger *zap.Logger) *SubcontractorHandler {
	return &SubcontractorHandler{
		subcontractorService: subcontractorService,
		logger:               logger,
	}
}

// List godoc
// @Summary List subcontractors
// @Description Get paginated list of subcontractors with optional search and status filter
// @Tags Subcontractors
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search in name and SIRET"
// @Param status query string false "Filter by status" Enums(active, blacklisted, inactive)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.SubcontractorDTO}
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /subcontractors [get]
func (h *SubcontractorHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	search := r.URL.Query().Get("search")
	status := domain.SubcontractorStatus(r.URL.Query().Get("status"))

	subs, total, err := h.subcontractorService.List(r.Context(), page, pageSize, search, status)
	if err != nil {
		h.logger.Error("failed to list subcontractors", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondPaginated(w, subs, total, page, pageSize)
}

// GetByID godoc
// @Summary Get subcontractor by ID
// @Tags Subcontractors
// @Produce json
// @Param id path int true "Subcontractor ID"
// @Success 200 {object} domain.SubcontractorDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /subcontractors/{id} [get]
func (h *SubcontractorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid subcontractor ID: must be an integer")
		return
	}

	sub, err := h.subcontractorService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sub)
}
