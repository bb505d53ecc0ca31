package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/wizard"
)

// =============================================================================
// Draft Lifecycle Tests
// =============================================================================

func TestCreateDraft_ContractFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newDraftService(db)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, domain.DraftKindContract, dto.Kind)
	assert.Equal(t, "project", dto.CurrentStep)
	assert.Empty(t, dto.CompletedSteps)
	assert.Equal(t, 30, dto.PaymentTermDays)
	assert.Empty(t, dto.BOQData)
	assert.Zero(t, dto.TotalAmount)
}

func TestCreateDraft_VariationOrderRequiresContract(t *testing.T) {
	db := setupTestDB(t)
	svc := newDraftService(db)

	_, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindVariationOrder,
	}, "alice@example.com")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateDraft_PatchesOnlyGivenFields(t *testing.T) {
	db := setupTestDB(t)
	_, sub, _ := seedReferenceData(t, db)
	svc := newDraftService(db)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	updated, err := svc.UpdateDraft(context.Background(), dto.ID, &domain.UpdateDraftRequest{
		SubcontractorID: &sub.ID,
		Description:     ptrString("Electrical works, phase 1"),
	})
	require.NoError(t, err)

	assert.Equal(t, sub.ID, *updated.SubcontractorID)
	assert.Equal(t, "Electrical works, phase 1", updated.Description)
	assert.Equal(t, 30, updated.PaymentTermDays, "untouched field keeps its value")
	assert.True(t, updated.Dirty)
}

func TestUpdateDraft_RejectsBlacklistedSubcontractor(t *testing.T) {
	db := setupTestDB(t)
	svc := newDraftService(db)

	blacklisted := domain.Subcontractor{
		Name:      "Shady Works Ltd",
		OrgNumber: "999999999",
		Status:    domain.SubcontractorStatusBlacklisted,
	}
	require.NoError(t, db.Create(&blacklisted).Error)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	_, err = svc.UpdateDraft(context.Background(), dto.ID, &domain.UpdateDraftRequest{
		SubcontractorID: &blacklisted.ID,
	})
	assert.ErrorIs(t, err, ErrSubcontractorBlacklisted)
}

// =============================================================================
// Navigation Tests
// =============================================================================

func TestNext_GatedByStepValidator(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	svc := newDraftService(db)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	// No project selected yet: forward navigation is refused and the
	// stored position stays put.
	_, err = svc.Next(context.Background(), dto.ID)
	assert.ErrorIs(t, err, wizard.ErrStepIncomplete)

	reloaded, err := svc.GetDraft(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "project", reloaded.CurrentStep)

	_, err = svc.UpdateDraft(context.Background(), dto.ID, &domain.UpdateDraftRequest{
		ProjectID: &project.ID,
	})
	require.NoError(t, err)

	advanced, err := svc.Next(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "scope", advanced.CurrentStep)
	assert.Contains(t, advanced.CompletedSteps, "project")
}

func TestPrevious_NoOpAtFirstStep(t *testing.T) {
	db := setupTestDB(t)
	svc := newDraftService(db)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	back, err := svc.Previous(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "project", back.CurrentStep)
}

func TestGoToStep_OnlyCompletedOrCurrent(t *testing.T) {
	db := setupTestDB(t)
	project, _, _ := seedReferenceData(t, db)
	svc := newDraftService(db)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	_, err = svc.GoToStep(context.Background(), dto.ID, "boq")
	assert.ErrorIs(t, err, wizard.ErrStepNotReachable)

	_, err = svc.GoToStep(context.Background(), dto.ID, "does-not-exist")
	assert.ErrorIs(t, err, wizard.ErrUnknownStep)

	_, err = svc.UpdateDraft(context.Background(), dto.ID, &domain.UpdateDraftRequest{
		ProjectID: &project.ID,
	})
	require.NoError(t, err)
	_, err = svc.Next(context.Background(), dto.ID)
	require.NoError(t, err)

	back, err := svc.GoToStep(context.Background(), dto.ID, "project")
	require.NoError(t, err)
	assert.Equal(t, "project", back.CurrentStep)
}

// =============================================================================
// Submit Tests
// =============================================================================

// driveContractDraftToEnd fills a draft and walks it to the preview step
func driveContractDraftToEnd(t *testing.T, svc *DraftService, boqSvc *BOQService, project domain.Project, sub domain.Subcontractor, currency domain.Currency) *domain.DraftDTO {
	t.Helper()
	ctx := context.Background()

	dto, err := svc.CreateDraft(ctx, &domain.CreateDraftRequest{Kind: domain.DraftKindContract}, "alice@example.com")
	require.NoError(t, err)

	buildingID := project.Buildings[0].ID
	_, err = svc.UpdateDraft(ctx, dto.ID, &domain.UpdateDraftRequest{
		ProjectID:       &project.ID,
		SubcontractorID: &sub.ID,
		CurrencyID:      &currency.ID,
		SheetName:       ptrString("Electrical"),
		BuildingIDs:     &[]int64{buildingID},
	})
	require.NoError(t, err)

	_, err = boqSvc.AddItem(ctx, dto.ID, &domain.AddBOQItemRequest{
		BuildingID:   buildingID,
		BuildingName: project.Buildings[0].Name,
		SheetName:    "Electrical",
		Initial:      boq.Item{No: "1", Key: "Cable trays", Unite: "m", Qte: 10, Pu: 2.5},
	})
	require.NoError(t, err)

	// project → scope → subcontractor → details → boq → review → preview
	for i := 0; i < 6; i++ {
		dto, err = svc.Next(ctx, dto.ID)
		require.NoError(t, err)
	}
	require.Equal(t, "preview", dto.CurrentStep)
	return dto
}

func TestSubmit_OnlyFromFinalStep(t *testing.T) {
	db := setupTestDB(t)
	seedReferenceData(t, db)
	svc := newDraftService(db)

	dto, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	_, _, err = svc.Submit(context.Background(), dto.ID)
	assert.ErrorIs(t, err, wizard.ErrNotAtFinalStep)
}

func TestSubmit_CreatesContractAndDeletesDraft(t *testing.T) {
	db := setupTestDB(t)
	project, sub, currency := seedReferenceData(t, db)
	svc := newDraftService(db)
	boqSvc := newBOQService(db)

	dto := driveContractDraftToEnd(t, svc, boqSvc, project, sub, currency)

	contract, vo, err := svc.Submit(context.Background(), dto.ID)
	require.NoError(t, err)
	require.Nil(t, vo)
	require.NotNil(t, contract)

	assert.Regexp(t, `^CTR-\d{4}-0001$`, contract.Number)
	assert.Equal(t, project.ID, contract.ProjectID)
	assert.Equal(t, 25.0, contract.TotalAmount)
	require.Len(t, contract.Items, 1)
	assert.Equal(t, 25.0, contract.Items[0].TotalPrice)

	// The draft is gone once the contract exists
	_, err = svc.GetDraft(context.Background(), dto.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmit_UnitlessRowsStayOutOfTotalAmount(t *testing.T) {
	db := setupTestDB(t)
	project, sub, currency := seedReferenceData(t, db)
	svc := newDraftService(db)
	boqSvc := newBOQService(db)

	dto := driveContractDraftToEnd(t, svc, boqSvc, project, sub, currency)

	// A row without a unit is carried along but is not a priced line
	// yet, so it must not move the contract total.
	_, err := boqSvc.AddItem(context.Background(), dto.ID, &domain.AddBOQItemRequest{
		BuildingID:   project.Buildings[0].ID,
		BuildingName: project.Buildings[0].Name,
		SheetName:    "Electrical",
		Initial:      boq.Item{No: "2", Key: "Provisional sum", Qte: 100, Pu: 100},
	})
	require.NoError(t, err)

	contract, _, err := svc.Submit(context.Background(), dto.ID)
	require.NoError(t, err)

	assert.Equal(t, 25.0, contract.TotalAmount, "matches the draft's displayed total")
	require.Len(t, contract.Items, 2, "the unit-less row is still persisted")
}

func TestSubmit_VariationOrderAmountExcludesUnitlessRows(t *testing.T) {
	db := setupTestDB(t)
	project, sub, currency := seedReferenceData(t, db)
	svc := newDraftService(db)
	boqSvc := newBOQService(db)

	contractDraft := driveContractDraftToEnd(t, svc, boqSvc, project, sub, currency)
	contract, _, err := svc.Submit(context.Background(), contractDraft.ID)
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.CreateDraft(ctx, &domain.CreateDraftRequest{
		Kind:       domain.DraftKindVariationOrder,
		ContractID: &contract.ID,
	}, "alice@example.com")
	require.NoError(t, err)

	buildingID := project.Buildings[0].ID
	_, err = svc.UpdateDraft(ctx, dto.ID, &domain.UpdateDraftRequest{
		SheetName:   ptrString("Electrical"),
		BuildingIDs: &[]int64{buildingID},
		Description: ptrString("Additional cabling"),
	})
	require.NoError(t, err)

	_, err = boqSvc.AddItem(ctx, dto.ID, &domain.AddBOQItemRequest{
		BuildingID:   buildingID,
		BuildingName: project.Buildings[0].Name,
		SheetName:    "Electrical",
		Initial:      boq.Item{No: "1", Key: "Extra cable trays", Unite: "m", Qte: 4, Pu: 50},
	})
	require.NoError(t, err)
	_, err = boqSvc.AddItem(ctx, dto.ID, &domain.AddBOQItemRequest{
		BuildingID:   buildingID,
		BuildingName: project.Buildings[0].Name,
		SheetName:    "Electrical",
		Initial:      boq.Item{No: "2", Key: "Pending pricing", Qte: 100, Pu: 100},
	})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		dto, err = svc.Next(ctx, dto.ID)
		require.NoError(t, err)
	}

	_, vo, err := svc.Submit(ctx, dto.ID)
	require.NoError(t, err)
	require.NotNil(t, vo)

	assert.Equal(t, 200.0, vo.Amount)
	require.Len(t, vo.Items, 2)
}

func TestSubmit_VariationOrderWithNegativeAmount(t *testing.T) {
	db := setupTestDB(t)
	project, sub, currency := seedReferenceData(t, db)
	svc := newDraftService(db)
	boqSvc := newBOQService(db)

	// A contract the VO amends
	contractDraft := driveContractDraftToEnd(t, svc, boqSvc, project, sub, currency)
	contract, _, err := svc.Submit(context.Background(), contractDraft.ID)
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.CreateDraft(ctx, &domain.CreateDraftRequest{
		Kind:       domain.DraftKindVariationOrder,
		ContractID: &contract.ID,
	}, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "contract", dto.CurrentStep)

	buildingID := project.Buildings[0].ID
	_, err = svc.UpdateDraft(ctx, dto.ID, &domain.UpdateDraftRequest{
		SheetName:   ptrString("Electrical"),
		BuildingIDs: &[]int64{buildingID},
		Description: ptrString("Scope reduction, corridor lighting"),
	})
	require.NoError(t, err)

	// Negative quantity models a deduction scope
	_, err = boqSvc.AddItem(ctx, dto.ID, &domain.AddBOQItemRequest{
		BuildingID:   buildingID,
		BuildingName: project.Buildings[0].Name,
		SheetName:    "Electrical",
		Initial:      boq.Item{No: "1", Key: "Removed luminaires", Unite: "pcs", Qte: -4, Pu: 50},
	})
	require.NoError(t, err)

	// contract → scope → details → boq → review
	for i := 0; i < 4; i++ {
		dto, err = svc.Next(ctx, dto.ID)
		require.NoError(t, err)
	}
	require.Equal(t, "review", dto.CurrentStep)

	c, vo, err := svc.Submit(ctx, dto.ID)
	require.NoError(t, err)
	require.Nil(t, c)
	require.NotNil(t, vo)

	assert.Regexp(t, `^VO-\d{4}-0001$`, vo.Number)
	assert.Equal(t, contract.ID, vo.ContractID)
	assert.Equal(t, -200.0, vo.Amount)
	assert.Equal(t, domain.VariationOrderStatusPending, vo.Status)
}

// =============================================================================
// Cleanup Tests
// =============================================================================

func TestDeleteIdleDrafts_RemovesOnlyStaleOnes(t *testing.T) {
	db := setupTestDB(t)
	svc := newDraftService(db)

	fresh, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "alice@example.com")
	require.NoError(t, err)

	stale, err := svc.CreateDraft(context.Background(), &domain.CreateDraftRequest{
		Kind: domain.DraftKindContract,
	}, "bob@example.com")
	require.NoError(t, err)

	old := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, db.Model(&domain.WizardDraft{}).
		Where("id = ?", stale.ID).
		UpdateColumn("updated_at", old).Error)

	removed, err := svc.DeleteIdleDrafts(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = svc.GetDraft(context.Background(), fresh.ID)
	assert.NoError(t, err)
	_, err = svc.GetDraft(context.Background(), stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
