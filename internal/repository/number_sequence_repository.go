package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository backs document numbering. Sequences are keyed
// by document kind and year (e.g. "contract-2026") so contract and
// variation order numbers restart each year without colliding.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// NextValue atomically increments and returns the sequence for a key.
// Uses SELECT FOR UPDATE to prevent two submits taking the same number.
// If no sequence exists for the key, it creates one starting at 1.
func (r *NumberSequenceRepository) NextValue(ctx context.Context, key string) (int64, error) {
	var seq domain.NumberSequence
	var next int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", key).
			First(&seq)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			seq = domain.NumberSequence{
				Key:       key,
				LastValue: 1,
				UpdatedAt: time.Now(),
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			next = 1
		} else if result.Error != nil {
			return fmt.Errorf("failed to get number sequence: %w", result.Error)
		} else {
			next = seq.LastValue + 1
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_value": next,
				"updated_at": time.Now(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update number sequence: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return next, nil
}
