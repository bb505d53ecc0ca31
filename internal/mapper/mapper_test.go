package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

func TestGridFromDraft_EmptyPayloadYieldsEmptyGrid(t *testing.T) {
	grid, err := GridFromDraft(&domain.WizardDraft{BOQData: ""})
	require.NoError(t, err)
	assert.Empty(t, grid)
}

func TestGridFromDraft_MalformedPayloadFails(t *testing.T) {
	_, err := GridFromDraft(&domain.WizardDraft{BOQData: "{not json"})
	assert.Error(t, err)
}

func TestToDraftDTO_RecomputesTotalAndDefaultsSlices(t *testing.T) {
	draft := &domain.WizardDraft{
		Kind:        domain.DraftKindContract,
		CurrentStep: "boq",
		BOQData:     `[{"buildingId":1,"buildingName":"Block A","sheetName":"Electrical","items":[{"key":"Cabling","unite":"m","qte":10,"pu":3},{"key":"No unit row","qte":5,"pu":100}]}]`,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}

	dto, err := ToDraftDTO(draft)
	require.NoError(t, err)

	// Rows without a unit are excluded from the total.
	assert.Equal(t, 30.0, dto.TotalAmount)
	assert.NotNil(t, dto.CompletedSteps)
	assert.NotNil(t, dto.BuildingIDs)
	assert.Equal(t, "2025-06-01T10:00:00Z", dto.CreatedAt)
}

func TestToContractSubmissionDTO_SkipsEmptyRowsAndReplacesAll(t *testing.T) {
	projectID := int64(7)
	draft := &domain.WizardDraft{
		ProjectID:      &projectID,
		ContractNumber: "CTR-2025-0001",
		SheetName:      "Electrical",
	}
	grid := boq.Grid{{
		BuildingID:   1,
		BuildingName: "Block A",
		SheetName:    "Electrical",
		Items: []boq.Item{
			{Key: "Cabling", Unite: "m", Qte: 10, Pu: 2.5},
			{}, // untouched placeholder row
		},
	}}

	sub := ToContractSubmissionDTO(draft, grid)

	assert.Equal(t, int64(7), sub.ProjectID)
	require.Len(t, sub.Buildings, 1)
	assert.True(t, sub.Buildings[0].ReplaceAllItems)
	require.Len(t, sub.Buildings[0].BOQsContract, 1)
	assert.Equal(t, 25.0, sub.Buildings[0].BOQsContract[0].TotalPrice)
}

func TestToSubmissionItemDTO_CostCodeIDOnlyWhenSet(t *testing.T) {
	with := ToSubmissionItemDTO(boq.Item{Key: "x", CostCodeID: 42})
	require.NotNil(t, with.CostCodeID)
	assert.Equal(t, int64(42), *with.CostCodeID)

	without := ToSubmissionItemDTO(boq.Item{Key: "x"})
	assert.Nil(t, without.CostCodeID)
}
