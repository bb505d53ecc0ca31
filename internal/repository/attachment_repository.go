package repository

import (
	"context"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *AttachmentRepository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Where("draft_id = ?", draftID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) ListByContract(ctx context.Context, contractID int64) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id).Error
}

// ReassignDraftToContract moves a draft's attachments onto the contract
// created from it at submit time.
func (r *AttachmentRepository) ReassignDraftToContract(ctx context.Context, draftID uuid.UUID, contractID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Attachment{}).
		Where("draft_id = ?", draftID).
		Updates(map[string]interface{}{
			"draft_id":    nil,
			"contract_id": contractID,
		}).Error
}
