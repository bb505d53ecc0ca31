package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/auth"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/service"
)

type DraftHandler struct {
	draftService *service.DraftService
	logger       *zap.Logger
}

func NewDraftHandler(draftService *service.DraftService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		logger:       logger,
	}
}

// Create godoc
// @Summary Start a wizard draft
// @Description Create a new contract or variation order draft positioned at the first step of its flow
// @Tags Drafts
// @Accept json
// @Produce json
// @Param request body domain.CreateDraftRequest true "Draft kind, plus contract ID for variation orders"
// @Success 201 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Parent contract not found"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts [post]
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	createdBy := ""
	if user, ok := auth.FromContext(r.Context()); ok {
		createdBy = user.Identity()
	}

	draft, err := h.draftService.CreateDraft(r.Context(), &req, createdBy)
	if err != nil {
		h.logger.Error("failed to create draft", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/contracts/drafts/"+draft.ID.String())
	respondJSON(w, http.StatusCreated, draft)
}

// List godoc
// @Summary List my drafts
// @Description List in-progress drafts created by the authenticated user
// @Tags Drafts
// @Produce json
// @Success 200 {array} domain.DraftDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts [get]
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	createdBy := ""
	if user, ok := auth.FromContext(r.Context()); ok {
		createdBy = user.Identity()
	}

	drafts, err := h.draftService.ListDrafts(r.Context(), createdBy)
	if err != nil {
		h.logger.Error("failed to list drafts", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, drafts)
}

// GetByID godoc
// @Summary Get draft by ID
// @Description Get a draft with its wizard position and full BOQ grid
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id} [get]
func (h *DraftHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	draft, err := h.draftService.GetDraft(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Update godoc
// @Summary Patch draft form fields
// @Description Update scalar draft fields. Omitted fields are left unchanged.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param request body domain.UpdateDraftRequest true "Fields to change"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Subcontractor is blacklisted"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id} [patch]
func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	var req domain.UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	draft, err := h.draftService.UpdateDraft(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Delete godoc
// @Summary Discard a draft
// @Description Delete a draft and abandon the wizard session
// @Tags Drafts
// @Param id path string true "Draft ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id} [delete]
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	if err := h.draftService.DeleteDraft(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Next godoc
// @Summary Advance to the next step
// @Description Validate the current step and move the wizard forward. Fails with 409 when the step is incomplete.
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Current step is incomplete"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/steps/next [post]
func (h *DraftHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.draftService.Next)
}

// Previous godoc
// @Summary Go back one step
// @Description Move the wizard backward without validation. A no-op at the first step.
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/steps/previous [post]
func (h *DraftHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.draftService.Previous)
}

func (h *DraftHandler) navigate(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id uuid.UUID) (*domain.DraftDTO, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	draft, err := move(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// GoToStep godoc
// @Summary Jump to a step
// @Description Jump directly to a completed step, or back to the current one
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Param step path string true "Target step name"
// @Success 200 {object} domain.DraftDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Step has not been completed yet"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/steps/{step} [post]
func (h *DraftHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	draft, err := h.draftService.GoToStep(r.Context(), id, chi.URLParam(r, "step"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// Submit godoc
// @Summary Submit a draft
// @Description Persist the draft as a contract or variation order. Only allowed from the final wizard step; the draft is deleted on success.
// @Tags Drafts
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Success 201 {object} domain.SubmitResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Draft is not at its final step"
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/submit [post]
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	contract, vo, err := h.draftService.Submit(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to submit draft", zap.Error(err), zap.String("draft_id", id.String()))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, domain.SubmitResultDTO{
		Contract:       contract,
		VariationOrder: vo,
	})
}
