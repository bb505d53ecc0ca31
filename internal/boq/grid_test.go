package boq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetItem(no, key, unite string, qte, pu float64) Item {
	return Item{
		No:           no,
		Key:          key,
		Unite:        unite,
		Qte:          qte,
		Pu:           pu,
		BudgetSource: true,
		Readonly:     DescriptiveMask,
	}
}

// =============================================================================
// AddItem Tests
// =============================================================================

func TestAddItem_CreatesEntryOnFirstAdd(t *testing.T) {
	var g Grid

	item := g.AddItem(7, "Block A", "Electrical", Item{No: "1"})

	require.Len(t, g, 1)
	assert.Equal(t, int64(7), g[0].BuildingID)
	assert.Equal(t, "Block A", g[0].BuildingName)
	assert.Equal(t, "Electrical", g[0].SheetName)
	require.Len(t, g[0].Items, 1)
	assert.Equal(t, int64(0), item.ID)
	assert.Equal(t, "1", item.No)
	assert.Equal(t, "", item.Key)
	assert.Equal(t, "", item.Unite)
	assert.Equal(t, 0.0, item.Qte)
	assert.Equal(t, 0.0, item.Pu)
}

func TestAddItem_AppendsToExistingEntry(t *testing.T) {
	var g Grid
	g.AddItem(7, "Block A", "Electrical", Item{No: "1"})
	g.AddItem(7, "Block A", "Electrical", Item{No: "2"})

	require.Len(t, g, 1)
	require.Len(t, g[0].Items, 2)
	assert.Equal(t, "2", g[0].Items[1].No)
}

func TestAddItem_SeparateEntriesPerBuildingAndSheet(t *testing.T) {
	var g Grid
	g.AddItem(7, "Block A", "Electrical", Item{})
	g.AddItem(7, "Block A", "Plumbing", Item{})
	g.AddItem(8, "Block B", "Electrical", Item{})

	assert.Len(t, g, 3)
}

func TestAddItem_StripsBudgetStampFromInitialValue(t *testing.T) {
	var g Grid

	item := g.AddItem(1, "B", "S", Item{ID: 42, BudgetSource: true, Readonly: DescriptiveMask})

	assert.Equal(t, int64(0), item.ID)
	assert.False(t, item.BudgetSource)
	assert.False(t, IsFieldReadonly(*item, FieldNo))
}

// =============================================================================
// UpdateItem Tests
// =============================================================================

func TestUpdateItem_SetsStringAndNumericFields(t *testing.T) {
	var g Grid
	g.AddItem(7, "Block A", "Electrical", Item{})

	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldNo, "1.01"))
	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldKey, "Cable tray"))
	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldQte, 10.0))
	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldPu, 2.5))
	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldCostCodeID, 33.0))

	item := g[0].Items[0]
	assert.Equal(t, "1.01", item.No)
	assert.Equal(t, "Cable tray", item.Key)
	assert.Equal(t, 10.0, item.Qte)
	assert.Equal(t, 2.5, item.Pu)
	assert.Equal(t, int64(33), item.CostCodeID)
}

func TestUpdateItem_CoercesNumericStrings(t *testing.T) {
	var g Grid
	g.AddItem(1, "B", "S", Item{})

	require.NoError(t, g.UpdateItem(1, "S", 0, FieldQte, " 12.5 "))

	assert.Equal(t, 12.5, g[0].Items[0].Qte)
}

func TestUpdateItem_ReadonlyFieldRejectedStateUnchanged(t *testing.T) {
	g := Grid{{
		BuildingID: 1, BuildingName: "B", SheetName: "S",
		Items: []Item{budgetItem("1", "Concrete C30", "m³", 5, 120)},
	}}

	for _, field := range []Field{FieldNo, FieldKey, FieldCostCode, FieldUnite} {
		err := g.UpdateItem(1, "S", 0, field, "changed")
		assert.ErrorIs(t, err, ErrFieldReadonly)
	}

	item := g[0].Items[0]
	assert.Equal(t, "1", item.No)
	assert.Equal(t, "Concrete C30", item.Key)
	assert.Equal(t, "m³", item.Unite)
}

func TestUpdateItem_QteAndPuAlwaysEditable(t *testing.T) {
	g := Grid{{
		BuildingID: 1, BuildingName: "B", SheetName: "S",
		Items: []Item{budgetItem("1", "Concrete C30", "m³", 5, 120)},
	}}

	require.NoError(t, g.UpdateItem(1, "S", 0, FieldQte, 8.0))
	require.NoError(t, g.UpdateItem(1, "S", 0, FieldPu, 130.0))

	assert.Equal(t, 8.0, g[0].Items[0].Qte)
	assert.Equal(t, 130.0, g[0].Items[0].Pu)
}

func TestUpdateItem_UnknownSheetAndIndex(t *testing.T) {
	var g Grid
	g.AddItem(1, "B", "S", Item{})

	assert.ErrorIs(t, g.UpdateItem(2, "S", 0, FieldNo, "x"), ErrSheetNotFound)
	assert.ErrorIs(t, g.UpdateItem(1, "S", 5, FieldNo, "x"), ErrItemNotFound)
	assert.ErrorIs(t, g.UpdateItem(1, "S", -1, FieldNo, "x"), ErrItemNotFound)
}

func TestUpdateItem_TypeMismatchRejected(t *testing.T) {
	var g Grid
	g.AddItem(1, "B", "S", Item{})

	assert.ErrorIs(t, g.UpdateItem(1, "S", 0, FieldNo, 12.0), ErrInvalidValue)
	assert.ErrorIs(t, g.UpdateItem(1, "S", 0, FieldQte, "abc"), ErrInvalidValue)
}

func TestParseField_UnknownName(t *testing.T) {
	_, err := ParseField("totalPrice")
	assert.ErrorIs(t, err, ErrUnknownField)
}

// =============================================================================
// DeleteItem Tests
// =============================================================================

func TestDeleteItem_RemovesRowKeepsEntry(t *testing.T) {
	var g Grid
	g.AddItem(1, "B", "S", Item{No: "1"})
	g.AddItem(1, "B", "S", Item{No: "2"})

	require.NoError(t, g.DeleteItem(1, "S", 0))

	require.Len(t, g, 1)
	require.Len(t, g[0].Items, 1)
	assert.Equal(t, "2", g[0].Items[0].No)

	require.NoError(t, g.DeleteItem(1, "S", 0))
	assert.Len(t, g, 1)
	assert.Empty(t, g[0].Items)
}

func TestDeleteItem_OutOfRange(t *testing.T) {
	var g Grid
	g.AddItem(1, "B", "S", Item{})

	assert.ErrorIs(t, g.DeleteItem(1, "S", 1), ErrItemNotFound)
	assert.ErrorIs(t, g.DeleteItem(9, "S", 0), ErrSheetNotFound)
}

// =============================================================================
// MergeBudget Tests
// =============================================================================

func TestMergeBudget_ReplacesMatchingKeyKeepsOthers(t *testing.T) {
	var g Grid
	g.AddItem(1, "Block A", "Electrical", Item{No: "A1", Key: "Hand edited"})
	g.AddItem(2, "Block B", "Electrical", Item{No: "B1"})
	before := g.Find(1, "Electrical").Items[0]

	g.MergeBudget([]BuildingBOQ{{
		BuildingID:   2,
		BuildingName: "Block B",
		SheetName:    "Electrical",
		Items:        []Item{{ID: 100, No: "2.01", Key: "From budget", Unite: "m", Qte: 4, Pu: 25}},
	}})

	require.Len(t, g, 2)
	assert.Equal(t, before, g.Find(1, "Electrical").Items[0])

	merged := g.Find(2, "Electrical")
	require.NotNil(t, merged)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, "From budget", merged.Items[0].Key)
	assert.True(t, merged.Items[0].BudgetSource)
	assert.Equal(t, DescriptiveMask, merged.Items[0].Readonly)
}

func TestMergeBudget_NoStaleDuplicate(t *testing.T) {
	var g Grid
	g.AddItem(2, "Block B", "Electrical", Item{No: "old"})

	g.MergeBudget([]BuildingBOQ{{
		BuildingID: 2, BuildingName: "Block B", SheetName: "Electrical",
		Items: []Item{{No: "new"}},
	}})

	count := 0
	for _, rec := range g {
		if rec.BuildingID == 2 && rec.SheetName == "Electrical" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "new", g.Find(2, "Electrical").Items[0].No)
}

func TestMergeBudget_InsertsNewKeys(t *testing.T) {
	var g Grid

	g.MergeBudget([]BuildingBOQ{
		{BuildingID: 1, SheetName: "S1", Items: []Item{{No: "1"}}},
		{BuildingID: 1, SheetName: "S2", Items: []Item{{No: "2"}}},
	})

	assert.Len(t, g, 2)
}

// =============================================================================
// Readonly Mask Tests
// =============================================================================

func TestReadonlyMask_QteAndPuNeverMaskable(t *testing.T) {
	it := Item{BudgetSource: true, Readonly: DescriptiveMask}

	assert.True(t, IsFieldReadonly(it, FieldNo))
	assert.True(t, IsFieldReadonly(it, FieldKey))
	assert.True(t, IsFieldReadonly(it, FieldCostCode))
	assert.True(t, IsFieldReadonly(it, FieldUnite))
	assert.False(t, IsFieldReadonly(it, FieldQte))
	assert.False(t, IsFieldReadonly(it, FieldPu))
}

func TestReadonlyMask_RequiresBudgetSource(t *testing.T) {
	it := Item{BudgetSource: false, Readonly: DescriptiveMask}

	assert.False(t, IsFieldReadonly(it, FieldNo))
}

func TestReadonlyMask_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(DescriptiveMask)
	require.NoError(t, err)
	assert.JSONEq(t, `["no","key","costCode","unite"]`, string(data))

	var m ReadonlyMask
	require.NoError(t, json.Unmarshal([]byte(`["no","unite","qte","pu","bogus"]`), &m))
	assert.True(t, m.Has(FieldNo))
	assert.True(t, m.Has(FieldUnite))
	assert.False(t, m.Has(FieldKey))
	assert.False(t, m.Has(FieldQte))
}

// =============================================================================
// Total / Empty-Row Tests
// =============================================================================

func TestComputeTotal_ExcludesUnitlessRows(t *testing.T) {
	items := []Item{
		{Qte: 2, Pu: 5, Unite: "m"},
		{Qte: 100, Pu: 100, Unite: ""},
	}

	assert.Equal(t, 10.0, ComputeTotal(items))
	assert.Equal(t, 0.0, ComputeTotal(nil))
}

func TestGridTotal_SumsAcrossEntries(t *testing.T) {
	g := Grid{
		{BuildingID: 1, SheetName: "S", Items: []Item{{Qte: 2, Pu: 5, Unite: "m"}}},
		{BuildingID: 2, SheetName: "S", Items: []Item{{Qte: 3, Pu: 10, Unite: "kg"}}},
	}

	assert.Equal(t, 40.0, g.Total())
}

func TestIsEmpty_DefaultRowIsEmpty(t *testing.T) {
	assert.True(t, Item{}.IsEmpty())

	nonEmpty := []Item{
		{No: "1"},
		{Key: "x"},
		{CostCode: "c"},
		{Unite: "m"},
		{Qte: 1},
		{Pu: 1},
	}
	for _, it := range nonEmpty {
		assert.False(t, it.IsEmpty())
	}
}

func TestHasItems_IgnoresEmptyPlaceholders(t *testing.T) {
	g := Grid{{BuildingID: 1, SheetName: "S", Items: []Item{{}}}}
	assert.False(t, g.HasItems())

	g[0].Items = append(g[0].Items, Item{No: "1"})
	assert.True(t, g.HasItems())
}

// =============================================================================
// End-to-End Scenario
// =============================================================================

func TestGrid_AddUpdateTotalScenario(t *testing.T) {
	var g Grid

	g.AddItem(7, "Block A", "Electrical", Item{No: "1"})

	require.Len(t, g, 1)
	assert.Equal(t, int64(7), g[0].BuildingID)
	assert.Equal(t, "Electrical", g[0].SheetName)
	assert.Equal(t, Item{ID: 0, No: "1"}, g[0].Items[0])

	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldQte, 10.0))
	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldPu, 2.5))
	assert.Equal(t, 10.0, g[0].Items[0].Qte)
	assert.Equal(t, 2.5, g[0].Items[0].Pu)

	// No unit yet, so the row does not count toward the total.
	assert.Equal(t, 0.0, ComputeTotal(g[0].Items))

	require.NoError(t, g.UpdateItem(7, "Electrical", 0, FieldUnite, "m"))
	assert.Equal(t, 25.0, ComputeTotal(g[0].Items))
}
