package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/service"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	logger         *zap.Logger
}

func NewProjectHandler(projectService *service.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// List godoc
// @Summary List projects
// @Description Get paginated list of projects with optional name search
// @Tags Projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search in project name and code"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ProjectDTO}
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	search := r.URL.Query().Get("search")

	projects, total, err := h.projectService.List(r.Context(), page, pageSize, search)
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondPaginated(w, projects, total, page, pageSize)
}

// GetByID godoc
// @Summary Get project by ID
// @Description Get a project including its buildings
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be an integer")
		return
	}

	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// ListBuildings godoc
// @Summary List a project's buildings
// @Description List the buildings of a project, in display order
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} domain.BuildingDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/buildings [get]
func (h *ProjectHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID: must be an integer")
		return
	}

	buildings, err := h.projectService.ListBuildings(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, buildings)
}
