package repository

import (
	"context"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
)

// BudgetBOQRepository reads the locally mirrored budget BOQ. It serves
// as the fallback source when the ERP warehouse is disabled or down.
type BudgetBOQRepository struct {
	db *gorm.DB
}

func NewBudgetBOQRepository(db *gorm.DB) *BudgetBOQRepository {
	return &BudgetBOQRepository{db: db}
}

// ListLines returns budget lines for a project sheet scoped to the given
// buildings, in grid order.
func (r *BudgetBOQRepository) ListLines(ctx context.Context, projectID int64, sheetName string, buildingIDs []int64) ([]domain.BudgetBOQLine, error) {
	var lines []domain.BudgetBOQLine
	query := r.db.WithContext(ctx).
		Where("project_id = ? AND sheet_name = ?", projectID, sheetName)
	if len(buildingIDs) > 0 {
		query = query.Where("building_id IN ?", buildingIDs)
	}
	err := query.Order("building_id ASC, position ASC").Find(&lines).Error
	return lines, err
}

// ReplaceProjectSheet swaps the mirrored lines of one project sheet,
// scoped to the given buildings when any are named. Used when syncing a
// fresh extract from the ERP.
func (r *BudgetBOQRepository) ReplaceProjectSheet(ctx context.Context, projectID int64, sheetName string, buildingIDs []int64, lines []domain.BudgetBOQLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("project_id = ? AND sheet_name = ?", projectID, sheetName)
		if len(buildingIDs) > 0 {
			stale = stale.Where("building_id IN ?", buildingIDs)
		}
		if err := stale.Delete(&domain.BudgetBOQLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		for i := range lines {
			lines[i].ProjectID = projectID
			lines[i].SheetName = sheetName
		}
		return tx.Create(&lines).Error
	})
}
