package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/mapper"
	"github.com/buildflow/subcontractor-api/internal/repository"
	"github.com/buildflow/subcontractor-api/internal/storage"
)

// MaxAttachmentSize caps uploads at 25 MB
const MaxAttachmentSize = 25 << 20

// AttachmentService stores uploaded files and their metadata. Files can
// hang off a draft (moved to the contract on submit) or directly off a
// contract.
type AttachmentService struct {
	attachments *repository.AttachmentRepository
	drafts      *repository.DraftRepository
	store       storage.Storage
	logger      *zap.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	attachments *repository.AttachmentRepository,
	drafts *repository.DraftRepository,
	store storage.Storage,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachments: attachments,
		drafts:      drafts,
		store:       store,
		logger:      logger,
	}
}

// Upload stores the file and records its metadata. Exactly one of
// draftID/contractID should be set.
func (s *AttachmentService) Upload(ctx context.Context, fileName, contentType string, data io.Reader, draftID *uuid.UUID, contractID *int64, uploadedBy string) (*domain.AttachmentDTO, error) {
	if draftID == nil && contractID == nil {
		return nil, fmt.Errorf("%w: attachment needs a draft or contract", ErrInvalidInput)
	}

	if draftID != nil {
		if _, err := s.drafts.GetByID(ctx, *draftID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: draft %s", ErrNotFound, *draftID)
			}
			return nil, fmt.Errorf("failed to load draft: %w", err)
		}
	}

	storagePath, size, err := s.store.Upload(ctx, fileName, contentType, io.LimitReader(data, MaxAttachmentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachment := &domain.Attachment{
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		DraftID:     draftID,
		ContractID:  contractID,
		UploadedBy:  uploadedBy,
	}

	if err := s.attachments.Create(ctx, attachment); err != nil {
		// Orphaned blob is cheaper than a metadata row without a blob
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to remove orphaned attachment blob",
				zap.String("storage_path", storagePath),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}

	s.logger.Info("attachment uploaded",
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("file_name", fileName),
		zap.Int64("size", size))

	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, nil
}

// Download returns the attachment metadata and a reader over its content.
// The caller must close the reader.
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID) (*domain.AttachmentDTO, io.ReadCloser, error) {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: attachment %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to load attachment: %w", err)
	}

	reader, err := s.store.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open attachment content: %w", err)
	}

	dto := mapper.ToAttachmentDTO(attachment)
	return &dto, reader, nil
}

// ListByDraft returns a draft's attachments
func (s *AttachmentService) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]domain.AttachmentDTO, error) {
	attachments, err := s.attachments.ListByDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return toAttachmentDTOs(attachments), nil
}

// ListByContract returns a contract's attachments
func (s *AttachmentService) ListByContract(ctx context.Context, contractID int64) ([]domain.AttachmentDTO, error) {
	attachments, err := s.attachments.ListByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return toAttachmentDTOs(attachments), nil
}

// Delete removes the metadata row and the stored content
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: attachment %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to load attachment: %w", err)
	}

	if err := s.attachments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if err := s.store.Delete(ctx, attachment.StoragePath); err != nil {
		s.logger.Warn("failed to delete attachment content",
			zap.String("attachment_id", id.String()),
			zap.String("storage_path", attachment.StoragePath),
			zap.Error(err))
	}

	return nil
}

func toAttachmentDTOs(attachments []domain.Attachment) []domain.AttachmentDTO {
	dtos := make([]domain.AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = mapper.ToAttachmentDTO(&attachments[i])
	}
	return dtos
}
