package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/repository"
)

// setupTestDB opens an in-memory sqlite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.Project{},
		&domain.Building{},
		&domain.Trade{},
		&domain.Subcontractor{},
		&domain.Unit{},
		&domain.CostCode{},
		&domain.Currency{},
		&domain.WizardDraft{},
		&domain.Contract{},
		&domain.ContractBOQItem{},
		&domain.VariationOrder{},
		&domain.VariationOrderBOQItem{},
		&domain.BudgetBOQLine{},
		&domain.Attachment{},
		&domain.NumberSequence{},
	)
	require.NoError(t, err)

	return db
}

// seedReferenceData inserts a project with two buildings, an active
// subcontractor, a currency and a handful of units.
func seedReferenceData(t *testing.T, db *gorm.DB) (project domain.Project, sub domain.Subcontractor, currency domain.Currency) {
	t.Helper()

	project = domain.Project{
		Name:    "Riverside Towers",
		Code:    "RT-01",
		Country: "France",
		Status:  domain.ProjectStatusActive,
		Buildings: []domain.Building{
			{Name: "Block A", Code: "A"},
			{Name: "Block B", Code: "B"},
		},
	}
	require.NoError(t, db.Create(&project).Error)

	sub = domain.Subcontractor{
		Name:      "Electra SARL",
		OrgNumber: "123456789",
		Status:    domain.SubcontractorStatusActive,
	}
	require.NoError(t, db.Create(&sub).Error)

	currency = domain.Currency{Code: "EUR", Name: "Euro", Symbol: "€"}
	require.NoError(t, db.Create(&currency).Error)

	for _, name := range []string{"m2", "m3", "m", "kg", "pcs", "h"} {
		require.NoError(t, db.Create(&domain.Unit{Name: name}).Error)
	}

	return project, sub, currency
}

func newDraftService(db *gorm.DB) *DraftService {
	return NewDraftService(
		repository.NewDraftRepository(db),
		repository.NewContractRepository(db),
		repository.NewVariationOrderRepository(db),
		repository.NewSubcontractorRepository(db),
		repository.NewAttachmentRepository(db),
		repository.NewNumberSequenceRepository(db),
		zap.NewNop(),
	)
}

func newBOQService(db *gorm.DB) *BOQService {
	return NewBOQService(
		repository.NewDraftRepository(db),
		repository.NewProjectRepository(db),
		repository.NewBudgetBOQRepository(db),
		repository.NewUnitRepository(db),
		nil, // ERP disabled, local fallback only
		zap.NewNop(),
	)
}

func ptrInt64(v int64) *int64    { return &v }
func ptrString(v string) *string { return &v }
