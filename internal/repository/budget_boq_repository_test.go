package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildflow/subcontractor-api/internal/domain"
)

func setupBudgetDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.BudgetBOQLine{}))
	return db
}

func TestReplaceProjectSheet_ScopedToGivenBuildings(t *testing.T) {
	db := setupBudgetDB(t)
	repo := NewBudgetBOQRepository(db)
	ctx := context.Background()

	seed := []domain.BudgetBOQLine{
		{ProjectID: 1, SheetName: "Electrical", BuildingID: 10, Position: 0, Key: "Old A", Unite: "m", Qte: 1, Pu: 1},
		{ProjectID: 1, SheetName: "Electrical", BuildingID: 20, Position: 0, Key: "Old B", Unite: "m", Qte: 1, Pu: 1},
	}
	require.NoError(t, db.Create(&seed).Error)

	fresh := []domain.BudgetBOQLine{
		{BuildingID: 10, Position: 0, Key: "New A1", Unite: "m", Qte: 2, Pu: 3},
		{BuildingID: 10, Position: 1, Key: "New A2", Unite: "m2", Qte: 4, Pu: 5},
	}
	require.NoError(t, repo.ReplaceProjectSheet(ctx, 1, "Electrical", []int64{10}, fresh))

	// Building 10 is replaced, building 20 keeps its mirrored line.
	lines, err := repo.ListLines(ctx, 1, "Electrical", nil)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "New A1", lines[0].Key)
	assert.Equal(t, "New A2", lines[1].Key)
	assert.Equal(t, "Old B", lines[2].Key)
}

func TestReplaceProjectSheet_WholeSheetWhenUnscoped(t *testing.T) {
	db := setupBudgetDB(t)
	repo := NewBudgetBOQRepository(db)
	ctx := context.Background()

	seed := []domain.BudgetBOQLine{
		{ProjectID: 1, SheetName: "Electrical", BuildingID: 10, Position: 0, Key: "Old A", Unite: "m", Qte: 1, Pu: 1},
		{ProjectID: 1, SheetName: "Plumbing", BuildingID: 10, Position: 0, Key: "Keep me", Unite: "m", Qte: 1, Pu: 1},
	}
	require.NoError(t, db.Create(&seed).Error)

	require.NoError(t, repo.ReplaceProjectSheet(ctx, 1, "Electrical", nil, nil))

	electrical, err := repo.ListLines(ctx, 1, "Electrical", nil)
	require.NoError(t, err)
	assert.Empty(t, electrical)

	plumbing, err := repo.ListLines(ctx, 1, "Plumbing", nil)
	require.NoError(t, err)
	require.Len(t, plumbing, 1)
}
