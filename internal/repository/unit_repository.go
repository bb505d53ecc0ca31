package repository

import (
	"context"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
)

type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) Create(ctx context.Context, unit *domain.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *UnitRepository) GetByID(ctx context.Context, id int64) (*domain.Unit, error) {
	var unit domain.Unit
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *UnitRepository) GetByName(ctx context.Context, name string) (*domain.Unit, error) {
	var unit domain.Unit
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// List returns the whole unit library. The table stays small, so no
// pagination is offered.
func (r *UnitRepository) List(ctx context.Context) ([]domain.Unit, error) {
	var units []domain.Unit
	err := r.db.WithContext(ctx).Order("name ASC").Find(&units).Error
	return units, err
}

func (r *UnitRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Unit{}, "id = ?", id).Error
}
