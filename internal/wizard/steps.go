// Package wizard implements the step state machine shared by the
// contract and variation order flows: an ordered step sequence, pure
// per-step validators over the draft snapshot, and navigation rules
// (forward gated by validation, backward free, direct jumps only to
// visited steps).
package wizard

import (
	"errors"
	"fmt"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
)

// Navigation errors
var (
	// ErrStepIncomplete is returned when the current step's validator rejects forward navigation
	ErrStepIncomplete = errors.New("current step is incomplete")

	// ErrStepNotReachable is returned on a direct jump to a step not yet visited
	ErrStepNotReachable = errors.New("step not reachable")

	// ErrUnknownStep is returned for a step name outside the flow
	ErrUnknownStep = errors.New("unknown wizard step")

	// ErrNotAtFinalStep is returned when submit is attempted before the last step
	ErrNotAtFinalStep = errors.New("submit only allowed from the final step")
)

// Step names one wizard step.
type Step string

const (
	StepProject       Step = "project"
	StepContract      Step = "contract"
	StepScope         Step = "scope"
	StepSubcontractor Step = "subcontractor"
	StepDetails       Step = "details"
	StepBOQ           Step = "boq"
	StepReview        Step = "review"
	StepPreview       Step = "preview"
)

// Validator is a pure predicate over the draft snapshot and its parsed
// BOQ grid. Validators never mutate state and are safe to call on every
// navigation attempt.
type Validator func(d *domain.WizardDraft, g boq.Grid) bool

// Flow is an ordered step sequence with its validators.
type Flow struct {
	steps      []Step
	validators map[Step]Validator
}

// ContractFlow returns the step sequence for creating a subcontractor
// contract.
func ContractFlow() *Flow {
	return &Flow{
		steps: []Step{
			StepProject, StepScope, StepSubcontractor, StepDetails,
			StepBOQ, StepReview, StepPreview,
		},
		validators: map[Step]Validator{
			StepProject: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.ProjectID != nil
			},
			StepScope: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.SheetName != "" && len(d.BuildingIDs) > 0
			},
			StepSubcontractor: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.SubcontractorID != nil
			},
			StepDetails: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.CurrencyID != nil
			},
			StepBOQ: func(_ *domain.WizardDraft, g boq.Grid) bool {
				return g.HasItems()
			},
		},
	}
}

// VariationOrderFlow returns the step sequence for amending an existing
// contract.
func VariationOrderFlow() *Flow {
	return &Flow{
		steps: []Step{
			StepContract, StepScope, StepDetails, StepBOQ, StepReview,
		},
		validators: map[Step]Validator{
			StepContract: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.ContractID != nil
			},
			StepScope: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.SheetName != "" && len(d.BuildingIDs) > 0
			},
			StepDetails: func(d *domain.WizardDraft, _ boq.Grid) bool {
				return d.Description != ""
			},
			StepBOQ: func(_ *domain.WizardDraft, g boq.Grid) bool {
				return g.HasItems()
			},
		},
	}
}

// FlowFor returns the flow matching a draft kind.
func FlowFor(kind domain.DraftKind) *Flow {
	if kind == domain.DraftKindVariationOrder {
		return VariationOrderFlow()
	}
	return ContractFlow()
}

// Steps returns the flow's steps in order.
func (f *Flow) Steps() []Step {
	return f.steps
}

// First returns the flow's initial step.
func (f *Flow) First() Step {
	return f.steps[0]
}

// Last returns the flow's final step.
func (f *Flow) Last() Step {
	return f.steps[len(f.steps)-1]
}

func (f *Flow) indexOf(step Step) int {
	for i, s := range f.steps {
		if s == step {
			return i
		}
	}
	return -1
}

// Validate runs the validator of the given step; steps without a
// validator (review, preview) are always valid.
func (f *Flow) Validate(step Step, d *domain.WizardDraft, g boq.Grid) bool {
	v, ok := f.validators[step]
	if !ok {
		return true
	}
	return v(d, g)
}

// Machine tracks one wizard session's position within a flow. Exactly one
// step is current; completed steps stay completed when navigating back.
type Machine struct {
	flow      *Flow
	current   int
	completed map[Step]bool
}

// NewMachine starts a machine at the flow's first step.
func NewMachine(flow *Flow) *Machine {
	return &Machine{
		flow:      flow,
		completed: make(map[Step]bool),
	}
}

// Restore rebuilds a machine from a persisted current step and completed
// set, rejecting steps that are not part of the flow.
func Restore(flow *Flow, current Step, completed []Step) (*Machine, error) {
	idx := flow.indexOf(current)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, current)
	}
	m := &Machine{
		flow:      flow,
		current:   idx,
		completed: make(map[Step]bool, len(completed)),
	}
	for _, s := range completed {
		if flow.indexOf(s) >= 0 {
			m.completed[s] = true
		}
	}
	return m, nil
}

// Current returns the current step.
func (m *Machine) Current() Step {
	return m.flow.steps[m.current]
}

// Completed returns the completed steps in flow order.
func (m *Machine) Completed() []Step {
	steps := make([]Step, 0, len(m.completed))
	for _, s := range m.flow.steps {
		if m.completed[s] {
			steps = append(steps, s)
		}
	}
	return steps
}

// IsLast reports whether the machine sits at the flow's final step.
func (m *Machine) IsLast() bool {
	return m.current == len(m.flow.steps)-1
}

// Next advances to the following step when the current step's validator
// accepts the snapshot. At the last step it is a no-op. An invalid
// snapshot leaves the position unchanged and returns ErrStepIncomplete.
func (m *Machine) Next(d *domain.WizardDraft, g boq.Grid) error {
	step := m.Current()
	if !m.flow.Validate(step, d, g) {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, step)
	}
	m.completed[step] = true
	if !m.IsLast() {
		m.current++
	}
	return nil
}

// Previous moves back one step without re-validating. At the first step
// it is a no-op.
func (m *Machine) Previous() {
	if m.current > 0 {
		m.current--
	}
}

// GoTo jumps directly to a step, permitted only for completed steps and
// the current step; forward jumps to unvisited steps are rejected.
func (m *Machine) GoTo(step Step) error {
	idx := m.flow.indexOf(step)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if step != m.Current() && !m.completed[step] {
		return fmt.Errorf("%w: %s", ErrStepNotReachable, step)
	}
	m.current = idx
	return nil
}
