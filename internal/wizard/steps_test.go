package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

// completeContractDraft returns a draft snapshot and grid that pass every
// contract-flow validator.
func completeContractDraft() (*domain.WizardDraft, boq.Grid) {
	d := &domain.WizardDraft{
		Kind:            domain.DraftKindContract,
		ProjectID:       int64Ptr(1),
		SubcontractorID: int64Ptr(2),
		CurrencyID:      int64Ptr(3),
		SheetName:       "Electrical",
		BuildingIDs:     []int64{7},
	}
	g := boq.Grid{{
		BuildingID: 7, SheetName: "Electrical",
		Items: []boq.Item{{No: "1", Unite: "m", Qte: 1, Pu: 1}},
	}}
	return d, g
}

// =============================================================================
// Step Gating Tests
// =============================================================================

func TestNext_BlockedWhenValidatorFails(t *testing.T) {
	m := NewMachine(ContractFlow())
	d := &domain.WizardDraft{} // no project selected

	err := m.Next(d, nil)

	assert.ErrorIs(t, err, ErrStepIncomplete)
	assert.Equal(t, StepProject, m.Current())
	assert.Empty(t, m.Completed())
}

func TestNext_AdvancesExactlyOneStep(t *testing.T) {
	m := NewMachine(ContractFlow())
	d, g := completeContractDraft()

	require.NoError(t, m.Next(d, g))

	assert.Equal(t, StepScope, m.Current())
	assert.Equal(t, []Step{StepProject}, m.Completed())
}

func TestNext_WalksFullContractFlow(t *testing.T) {
	m := NewMachine(ContractFlow())
	d, g := completeContractDraft()

	for _, want := range []Step{
		StepScope, StepSubcontractor, StepDetails, StepBOQ, StepReview, StepPreview,
	} {
		require.NoError(t, m.Next(d, g))
		assert.Equal(t, want, m.Current())
	}
	assert.True(t, m.IsLast())

	// No-op at the final step.
	require.NoError(t, m.Next(d, g))
	assert.Equal(t, StepPreview, m.Current())
}

func TestNext_BOQStepRequiresNonEmptyItems(t *testing.T) {
	d, g := completeContractDraft()
	m, err := Restore(ContractFlow(), StepBOQ, []Step{
		StepProject, StepScope, StepSubcontractor, StepDetails,
	})
	require.NoError(t, err)

	// An entry holding only an empty placeholder row does not count.
	empty := boq.Grid{{BuildingID: 7, SheetName: "Electrical", Items: []boq.Item{{}}}}
	assert.ErrorIs(t, m.Next(d, empty), ErrStepIncomplete)
	assert.Equal(t, StepBOQ, m.Current())

	require.NoError(t, m.Next(d, g))
	assert.Equal(t, StepReview, m.Current())
}

// =============================================================================
// Previous / GoTo Tests
// =============================================================================

func TestPrevious_FreeNavigationAndNoOpAtFirst(t *testing.T) {
	m := NewMachine(ContractFlow())
	d, g := completeContractDraft()
	require.NoError(t, m.Next(d, g))

	m.Previous()
	assert.Equal(t, StepProject, m.Current())

	m.Previous()
	assert.Equal(t, StepProject, m.Current())
}

func TestGoTo_OnlyCompletedOrCurrent(t *testing.T) {
	m := NewMachine(ContractFlow())
	d, g := completeContractDraft()
	require.NoError(t, m.Next(d, g))
	require.NoError(t, m.Next(d, g))
	// current: subcontractor; completed: project, scope

	require.NoError(t, m.GoTo(StepProject))
	assert.Equal(t, StepProject, m.Current())

	require.NoError(t, m.GoTo(StepScope))

	// Subcontractor was only visited, never completed, so after jumping
	// back it is no longer reachable directly.
	assert.ErrorIs(t, m.GoTo(StepSubcontractor), ErrStepNotReachable)
}

func TestGoTo_ForwardJumpForbidden(t *testing.T) {
	m := NewMachine(ContractFlow())

	err := m.GoTo(StepBOQ)

	assert.ErrorIs(t, err, ErrStepNotReachable)
	assert.Equal(t, StepProject, m.Current())
}

func TestGoTo_UnknownStep(t *testing.T) {
	m := NewMachine(ContractFlow())

	assert.ErrorIs(t, m.GoTo(Step("bogus")), ErrUnknownStep)
	// VO-only step is not part of the contract flow.
	assert.ErrorIs(t, m.GoTo(StepContract), ErrUnknownStep)
}

// =============================================================================
// Restore Tests
// =============================================================================

func TestRestore_RebuildsPositionAndCompleted(t *testing.T) {
	m, err := Restore(ContractFlow(), StepDetails, []Step{StepProject, StepScope, StepSubcontractor})

	require.NoError(t, err)
	assert.Equal(t, StepDetails, m.Current())
	assert.Equal(t, []Step{StepProject, StepScope, StepSubcontractor}, m.Completed())
}

func TestRestore_RejectsUnknownCurrentStep(t *testing.T) {
	_, err := Restore(ContractFlow(), Step("bogus"), nil)

	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestRestore_DropsForeignCompletedSteps(t *testing.T) {
	m, err := Restore(ContractFlow(), StepProject, []Step{StepContract, StepProject})

	require.NoError(t, err)
	assert.Equal(t, []Step{StepProject}, m.Completed())
}

// =============================================================================
// Variation Order Flow Tests
// =============================================================================

func TestVariationOrderFlow_Steps(t *testing.T) {
	flow := VariationOrderFlow()

	assert.Equal(t, []Step{StepContract, StepScope, StepDetails, StepBOQ, StepReview}, flow.Steps())
	assert.Equal(t, StepContract, flow.First())
	assert.Equal(t, StepReview, flow.Last())
}

func TestVariationOrderFlow_Validators(t *testing.T) {
	m := NewMachine(VariationOrderFlow())
	d := &domain.WizardDraft{Kind: domain.DraftKindVariationOrder}

	assert.ErrorIs(t, m.Next(d, nil), ErrStepIncomplete)

	d.ContractID = int64Ptr(12)
	require.NoError(t, m.Next(d, nil))
	assert.Equal(t, StepScope, m.Current())

	d.SheetName = "Plumbing"
	d.BuildingIDs = []int64{1}
	require.NoError(t, m.Next(d, nil))

	// Details step requires a description for a variation order.
	assert.ErrorIs(t, m.Next(d, nil), ErrStepIncomplete)
	d.Description = "Added scope for level 2"
	require.NoError(t, m.Next(d, nil))
	assert.Equal(t, StepBOQ, m.Current())
}

func TestFlowFor(t *testing.T) {
	assert.Equal(t, StepProject, FlowFor(domain.DraftKindContract).First())
	assert.Equal(t, StepContract, FlowFor(domain.DraftKindVariationOrder).First())
}
