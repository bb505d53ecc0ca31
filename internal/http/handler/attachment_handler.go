package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/auth"
	"github.com/buildflow/subcontractor-api/internal/service"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	logger            *zap.Logger
}

func NewAttachmentHandler(attachmentService *service.AttachmentService, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// Upload godoc
// @Summary Upload an attachment
// @Description Attach a document to a draft or a submitted contract. Exactly one of draftId and contractId must be provided as a form field.
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload (max 25 MB)"
// @Param draftId formData string false "Owning draft ID" format(uuid)
// @Param contractId formData int false "Owning contract ID"
// @Success 201 {object} domain.AttachmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /attachments/upload [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxAttachmentSize)
	if err := r.ParseMultipartForm(service.MaxAttachmentSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid upload: expected multipart form data under 25 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	var draftID *uuid.UUID
	if v := r.FormValue("draftId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid draftId: must be a valid UUID")
			return
		}
		draftID = &id
	}

	var contractID *int64
	if v := r.FormValue("contractId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid contractId: must be an integer")
			return
		}
		contractID = &id
	}

	uploadedBy := ""
	if user, ok := auth.FromContext(r.Context()); ok {
		uploadedBy = user.Identity()
	}

	contentType := header.Header.Get("Content-Type")
	attachment, err := h.attachmentService.Upload(r.Context(), header.Filename, contentType, file, draftID, contractID, uploadedBy)
	if err != nil {
		h.logger.Error("failed to upload attachment", zap.Error(err), zap.String("file_name", header.Filename))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// Download godoc
// @Summary Download an attachment
// @Tags Attachments
// @Produce application/octet-stream
// @Param id path string true "Attachment ID" format(uuid)
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	attachment, reader, err := h.attachmentService.Download(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer reader.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+attachment.FileName+"\"")
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	_, _ = io.Copy(w, reader)
}

// ListByDraft godoc
// @Summary List a draft's attachments
// @Tags Attachments
// @Produce json
// @Param id path string true "Draft ID" format(uuid)
// @Success 200 {array} domain.AttachmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/drafts/{id}/attachments [get]
func (h *AttachmentHandler) ListByDraft(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid draft ID: must be a valid UUID")
		return
	}

	attachments, err := h.attachmentService.ListByDraft(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// ListByContract godoc
// @Summary List a contract's attachments
// @Tags Attachments
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {array} domain.AttachmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contracts/{id}/attachments [get]
func (h *AttachmentHandler) ListByContract(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid contract ID: must be an integer")
		return
	}

	attachments, err := h.attachmentService.ListByContract(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// Delete godoc
// @Summary Delete an attachment
// @Tags Attachments
// @Param id path string true "Attachment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	if err := h.attachmentService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
