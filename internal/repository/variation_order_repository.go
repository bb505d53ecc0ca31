package repository

import (
	"context"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
)

type VariationOrderRepository struct {
	db *gorm.DB
}

func NewVariationOrderRepository(db *gorm.DB) *VariationOrderRepository {
	return &VariationOrderRepository{db: db}
}

func (r *VariationOrderRepository) Create(ctx context.Context, vo *domain.VariationOrder) error {
	return r.db.WithContext(ctx).Create(vo).Error
}

func (r *VariationOrderRepository) GetByID(ctx context.Context, id int64) (*domain.VariationOrder, error) {
	var vo domain.VariationOrder
	err := r.db.WithContext(ctx).
		Preload("Contract").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("building_id ASC, position ASC")
		}).
		Where("id = ?", id).
		First(&vo).Error
	if err != nil {
		return nil, err
	}
	return &vo, nil
}

func (r *VariationOrderRepository) ListByContract(ctx context.Context, contractID int64) ([]domain.VariationOrder, error) {
	var vos []domain.VariationOrder
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Find(&vos).Error
	return vos, err
}

func (r *VariationOrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.VariationOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.VariationOrder{}).
		Where("id = ?", id).
		Update("status", status).Error
}
