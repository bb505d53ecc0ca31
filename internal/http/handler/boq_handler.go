package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
)

// maxImportSize caps uploaded BOQ workbooks at 10 MB
const maxImportSize = 10 << 20

type BOQHandler struct {
	boqService    *service.BOQService
	importService *service.ImportService
	logger        *zap.Logger
}

func NewBOQHandler(boqService *service.BOQService, importService *service.ImportService, logger *zap.Logger) *BOQHandler {
	return &BOQHandler{
		boqService:    boqService,
		importService: importService,
		logger:        logger,
	}
}

// GetGrid godoc
// @Summary Get the draft BOQ grid
// @Description Get the full BOQ grid of a draft, grouped by building and sheet
// @Tags BOQ
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Success 200 {array} boq.BuildingBOQ
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/boq [get]
func (h *BOQHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	grid, err := h.boqService.GetGrid(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, grid)
}

// AddItem godoc
// @Summary Add a BOQ row
// @Description Append a row to a building sheet, creating the sheet on first use
// @Tags BOQ
// @Accept json
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param request body domain.AddBOQItemRequest true "Target sheet and initial values"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/boq/items [post]
func (h *BOQHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	var req domain.AddBOQItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.boqService.AddItem(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// UpdateItem godoc
// @Summary Edit one BOQ cell
// @Description Set a single field of a row. Readonly fields stamped by a budget merge are rejected with 409.
// @Tags BOQ
// @Accept json
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param index path int true "Row index within the sheet"
// @Param request body domain.UpdateBOQItemRequest true "Sheet coordinates, field name and new value"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError "Unknown field or uncoercible value"
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Field is readonly"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/boq/items/{index} [put]
func (h *BOQHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid item index: must be a non-negative integer")
		return
	}

	var req domain.UpdateBOQItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.boqService.UpdateItem(r.Context(), id, index, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// DeleteItem godoc
// @Summary Delete a BOQ row
// @Description Remove a row from a building sheet
// @Tags BOQ
// @Accept json
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param index path int true "Row index within the sheet"
// @Param request body domain.DeleteBOQItemRequest true "Sheet coordinates"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/boq/items/{index} [delete]
func (h *BOQHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid item index: must be a non-negative integer")
		return
	}

	var req domain.DeleteBOQItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.boqService.DeleteItem(r.Context(), id, index, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// CopyBudget godoc
// @Summary Merge budget BOQ lines into the draft
// @Description Pull budget lines for the selected buildings and sheet, replacing budget-sourced rows while keeping manual ones. Merged rows get readonly descriptive fields.
// @Tags BOQ
// @Accept json
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param request body domain.CopyBudgetBOQRequest true "Sheet and buildings to copy"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 503 {object} domain.APIError "No budget source is reachable"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/boq/copy-budget [post]
func (h *BOQHandler) CopyBudget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	var req domain.CopyBudgetBOQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.boqService.CopyBudgetBOQ(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to copy budget BOQ", zap.Error(err), zap.String("draft_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// ImportPreview godoc
// @Summary Preview an Excel BOQ import
// @Description Parse an uploaded .xlsx workbook into candidate BOQ rows. Nothing is written to the draft; the client reviews the preview and adds rows explicitly.
// @Tags BOQ
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param file formData file true "Excel workbook (.xlsx)"
// @Success 200 {object} domain.BOQImportPreviewDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/boq/import [post]
func (h *BOQHandler) ImportPreview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	// The preview is stateless but still 404s on unknown drafts.
	if _, err := h.boqService.GetGrid(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid upload: expected multipart form data under 10 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	preview, err := h.importService.Preview(file, header.Filename)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, preview)
}
