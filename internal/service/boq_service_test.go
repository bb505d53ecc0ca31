package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

// newDraftForBOQ creates a contract draft bound to the given project
func newDraftForBOQ(t *testing.T, svc *DraftService, projectID int64) *domain.DraftDTO {
	t.Helper()
	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	dto, err = svc.UpdateDraft(context.Background(), dto.ID, &domain.UpdateDraftRequest{
		ProjectID: &projectID,
	})
	require.NoError(t, err)
	return dto
}

// =============================================================================
// Grid Operation Tests
// =============================================================================

func TestAddItem_CreatesBuildingEntryOnFirstAdd(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	draft := newDraftForBOQ(t, draftSvc, project.ID)
	buildingID := project.Buildings[0].ID

	dto, err := svc.AddItem(context.Background(), draft.ID, &domain.AddBOQItemRequest{
		BuildingID:   buildingID,
		BuildingName: "Block A",
		SheetName:    "Electrical",
		Initial:      boq.Item{No: "1"},
	})
	require.NoError(t, err)

	require.Len(t, dto.BOQData, 1)
	entry := dto.BOQData.Find(buildingID, "Electrical")
	require.NotNil(t, entry)
	require.Len(t, entry.Items, 1)
	assert.Equal(t, "1", entry.Items[0].No)
	assert.Zero(t, entry.Items[0].ID, "new rows are never pre-assigned an id")
}

func TestUpdateItem_PersistsFieldWrite(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	draft := newDraftForBOQ(t, draftSvc, project.ID)
	buildingID := project.Buildings[0].ID

	_, err := svc.AddItem(context.Background(), draft.ID, &domain.AddBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
	})
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), draft.ID, 0, &domain.UpdateBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
		Field:      "qte",
		Value:      float64(10),
	})
	require.NoError(t, err)

	dto, err := svc.UpdateItem(context.Background(), draft.ID, 0, &domain.UpdateBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
		Field:      "pu",
		Value:      2.5,
	})
	require.NoError(t, err)

	entry := dto.BOQData.Find(buildingID, "Electrical")
	require.NotNil(t, entry)
	assert.Equal(t, 10.0, entry.Items[0].Qte)
	assert.Equal(t, 2.5, entry.Items[0].Pu)
}

func TestUpdateItem_UnknownFieldRejected(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	draft := newDraftForBOQ(t, draftSvc, project.ID)
	buildingID := project.Buildings[0].ID

	_, err := svc.AddItem(context.Background(), draft.ID, &domain.AddBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
	})
	require.NoError(t, err)

	_, err = svc.UpdateItem(context.Background(), draft.ID, 0, &domain.UpdateBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
		Field:      "totalPrice",
		Value:      99.0,
	})
	assert.ErrorIs(t, err, boq.ErrUnknownField)
}

func TestDeleteItem_RemovesRow(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	draft := newDraftForBOQ(t, draftSvc, project.ID)
	buildingID := project.Buildings[0].ID

	_, err := svc.AddItem(context.Background(), draft.ID, &domain.AddBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
		Initial:    boq.Item{No: "1"},
	})
	require.NoError(t, err)

	dto, err := svc.DeleteItem(context.Background(), draft.ID, 0, &domain.DeleteBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
	})
	require.NoError(t, err)

	entry := dto.BOQData.Find(buildingID, "Electrical")
	require.NotNil(t, entry)
	assert.Empty(t, entry.Items)
}

// =============================================================================
// Budget Copy Tests
// =============================================================================

func TestCopyBudgetBOQ_LocalFallbackStampsReadonly(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	buildingID := project.Buildings[0].ID
	lines := []domain.BudgetBOQLine{
		{ProjectID: project.ID, BuildingID: buildingID, SheetName: "Electrical", Position: 0,
			No: "1.1", Key: "Main distribution board", CostCode: "EL-100", Unite: "M²", Qte: 3, Pu: 1200},
		{ProjectID: project.ID, BuildingID: buildingID, SheetName: "Electrical", Position: 1,
			No: "1.2", Key: "Cabling", CostCode: "EL-110", Unite: "m", Qte: 250, Pu: 4.5},
	}
	require.NoError(t, db.Create(&lines).Error)

	draft := newDraftForBOQ(t, draftSvc, project.ID)

	// A manually added row for another building must survive the merge
	_, err := svc.AddItem(context.Background(), draft.ID, &domain.AddBOQItemRequest{
		BuildingID: project.Buildings[1].ID,
		SheetName:  "Electrical",
		Initial:    boq.Item{No: "9", Key: "Manual row", Unite: "h", Qte: 1, Pu: 10},
	})
	require.NoError(t, err)

	dto, err := svc.CopyBudgetBOQ(context.Background(), draft.ID, &domain.CopyBudgetBOQRequest{
		SheetName:   "Electrical",
		BuildingIDs: []int64{buildingID},
	})
	require.NoError(t, err)

	merged := dto.BOQData.Find(buildingID, "Electrical")
	require.NotNil(t, merged)
	require.Len(t, merged.Items, 2)

	for _, item := range merged.Items {
		assert.True(t, item.BudgetSource)
		assert.True(t, boq.IsFieldReadonly(item, boq.FieldKey))
		assert.True(t, boq.IsFieldReadonly(item, boq.FieldUnite))
		assert.False(t, boq.IsFieldReadonly(item, boq.FieldQte))
		assert.False(t, boq.IsFieldReadonly(item, boq.FieldPu))
	}

	// Unit spelling normalized against the library ("M²" → "m2")
	assert.Equal(t, "m2", merged.Items[0].Unite)
	assert.Equal(t, "Block A", merged.BuildingName)

	// Unrelated building untouched
	other := dto.BOQData.Find(project.Buildings[1].ID, "Electrical")
	require.NotNil(t, other)
	require.Len(t, other.Items, 1)
	assert.False(t, other.Items[0].BudgetSource)
}

func TestCopyBudgetBOQ_ReadonlyEnforcedAfterMerge(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	buildingID := project.Buildings[0].ID
	line := domain.BudgetBOQLine{
		ProjectID: project.ID, BuildingID: buildingID, SheetName: "Electrical",
		No: "1.1", Key: "Budget row", Unite: "m", Qte: 5, Pu: 2,
	}
	require.NoError(t, db.Create(&line).Error)

	draft := newDraftForBOQ(t, draftSvc, project.ID)
	_, err := svc.CopyBudgetBOQ(context.Background(), draft.ID, &domain.CopyBudgetBOQRequest{
		SheetName:   "Electrical",
		BuildingIDs: []int64{buildingID},
	})
	require.NoError(t, err)

	// Descriptive field of a budget row is locked
	_, err = svc.UpdateItem(context.Background(), draft.ID, 0, &domain.UpdateBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
		Field:      "key",
		Value:      "hacked",
	})
	assert.ErrorIs(t, err, boq.ErrFieldReadonly)

	// Quantity stays editable
	dto, err := svc.UpdateItem(context.Background(), draft.ID, 0, &domain.UpdateBOQItemRequest{
		BuildingID: buildingID,
		SheetName:  "Electrical",
		Field:      "qte",
		Value:      7.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, dto.BOQData.Find(buildingID, "Electrical").Items[0].Qte)
}

func TestCopyBudgetBOQ_RequiresProject(t *testing.T) {
	db := setupTestDB(t)
	seedReferenceData(t, db)
	draftSvc := newDraftService(db)
	svc := newBOQService(db)

	dto, err := draftSvc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	_, err = svc.CopyBudgetBOQ(context.Background(), dto.ID, &domain.CopyBudgetBOQRequest{
		SheetName:   "Electrical",
		BuildingIDs: []int64{1},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
