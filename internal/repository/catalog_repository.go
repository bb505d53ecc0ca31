package repository

import (
	"context"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
)

// CatalogRepository serves the small reference tables consumed by the
// wizard dropdowns: trades, cost codes and currencies.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := r.db.WithContext(ctx).Order("name ASC").Find(&trades).Error
	return trades, err
}

func (r *CatalogRepository) GetTradeByName(ctx context.Context, name string) (*domain.Trade, error) {
	var trade domain.Trade
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&trade).Error
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

func (r *CatalogRepository) ListCostCodes(ctx context.Context) ([]domain.CostCode, error) {
	var codes []domain.CostCode
	err := r.db.WithContext(ctx).Order("code ASC").Find(&codes).Error
	return codes, err
}

func (r *CatalogRepository) GetCostCodeByCode(ctx context.Context, code string) (*domain.CostCode, error) {
	var cc domain.CostCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&cc).Error
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *CatalogRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	var currencies []domain.Currency
	err := r.db.WithContext(ctx).Order("code ASC").Find(&currencies).Error
	return currencies, err
}

func (r *CatalogRepository) GetCurrencyByID(ctx context.Context, id int64) (*domain.Currency, error) {
	var currency domain.Currency
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&currency).Error
	if err != nil {
		return nil, err
	}
	return &currency, nil
}
