package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create persists the contract and its items in one transaction
func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contract).Error; err != nil {
			return fmt.Errorf("failed to create contract: %w", err)
		}
		return nil
	})
}

func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Subcontractor").
		Preload("Currency").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("building_id ASC, position ASC")
		}).
		Where("id = ?", id).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) GetByNumber(ctx context.Context, number string) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.db.WithContext(ctx).Where("number = ?", number).First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *ContractRepository) UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Contract{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *ContractRepository) List(ctx context.Context, page, pageSize int, projectID int64, subcontractorID int64, search string) ([]domain.Contract, int64, error) {
	var contracts []domain.Contract
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Contract{})

	if projectID > 0 {
		query = query.Where("project_id = ?", projectID)
	}
	if subcontractorID > 0 {
		query = query.Where("subcontractor_id = ?", subcontractorID)
	}
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(description) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Project").
		Preload("Subcontractor").
		Preload("Currency").
		Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&contracts).Error

	return contracts, total, err
}

// ReplaceBuildingItems swaps all items of one contract building sheet
// for the given set. Resubmitting a building never leaves stale lines
// behind.
func (r *ContractRepository) ReplaceBuildingItems(ctx context.Context, contractID, buildingID int64, sheetName string, items []domain.ContractBOQItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ? AND building_id = ? AND sheet_name = ?", contractID, buildingID, sheetName).
			Delete(&domain.ContractBOQItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete contract items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ContractID = contractID
			items[i].BuildingID = buildingID
			items[i].SheetName = sheetName
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to insert contract items: %w", err)
		}
		return nil
	})
}

// RecalculateTotal re-sums item totals into the contract header. Rows
// without a unit carry no priced amount and are left out of the sum.
func (r *ContractRepository) RecalculateTotal(ctx context.Context, contractID int64) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE contracts SET total_amount = (
			SELECT COALESCE(SUM(total_price), 0) FROM contract_boq_items
			WHERE contract_id = ? AND TRIM(unite) <> ''
		) WHERE id = ?`, contractID, contractID).Error
}
