package repository

import (
	"context"
	"time"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Create(ctx context.Context, draft *domain.WizardDraft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

func (r *DraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WizardDraft, error) {
	var draft domain.WizardDraft
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *DraftRepository) Save(ctx context.Context, draft *domain.WizardDraft) error {
	return r.db.WithContext(ctx).Save(draft).Error
}

func (r *DraftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.WizardDraft{}, "id = ?", id).Error
}

func (r *DraftRepository) ListByUser(ctx context.Context, createdBy string) ([]domain.WizardDraft, error) {
	var drafts []domain.WizardDraft
	err := r.db.WithContext(ctx).
		Where("created_by = ?", createdBy).
		Order("updated_at DESC").
		Find(&drafts).Error
	return drafts, err
}

// DeleteIdleBefore removes drafts not touched since the cutoff. Returns
// the number of rows removed.
func (r *DraftRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&domain.WizardDraft{})
	return result.RowsAffected, result.Error
}
