package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/mapper"
	"github.com/buildflow/subcontractor-api/internal/repository"
	"github.com/buildflow/subcontractor-api/internal/wizard"
)

// DraftService owns the wizard draft lifecycle: creation, scalar form
// patches, step navigation and the final submit that turns a draft into
// a contract or variation order. A draft is only ever mutated inside a
// single request; on any failure the stored draft is left untouched.
type DraftService struct {
	drafts         *repository.DraftRepository
	contracts      *repository.ContractRepository
	variations     *repository.VariationOrderRepository
	subcontractors *repository.SubcontractorRepository
	attachments    *repository.AttachmentRepository
	sequences      *repository.NumberSequenceRepository
	logger         *zap.Logger
}

// NewDraftService creates a new DraftService
func NewDraftService(
	drafts *repository.DraftRepository,
	contracts *repository.ContractRepository,
	variations *repository.VariationOrderRepository,
	subcontractors *repository.SubcontractorRepository,
	attachments *repository.AttachmentRepository,
	sequences *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *DraftService {
	return &DraftService{
		drafts:         drafts,
		contracts:      contracts,
		variations:     variations,
		subcontractors: subcontractors,
		attachments:    attachments,
		sequences:      sequences,
		logger:         logger,
	}
}

// CreateDraft starts a new wizard session of the given kind. Variation
// order drafts must name the contract they amend.
func (s *DraftService) CreateDraft(ctx context.Context, req *domain.CreateDraftRequest, createdBy string) (*domain.DraftDTO, error) {
	flow := wizard.FlowFor(req.Kind)
	if flow == nil {
		return nil, fmt.Errorf("%w: unknown draft kind %q", ErrInvalidInput, req.Kind)
	}

	draft := &domain.WizardDraft{
		Kind:            req.Kind,
		CurrentStep:     string(flow.First()),
		CompletedSteps:  []string{},
		PaymentTermDays: 30,
		BOQData:         "[]",
		CreatedBy:       createdBy,
	}

	if req.Kind == domain.DraftKindVariationOrder {
		if req.ContractID == nil {
			return nil, fmt.Errorf("%w: variation order draft requires contractId", ErrInvalidInput)
		}
		if _, err := s.contracts.GetByID(ctx, *req.ContractID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: contract %d", ErrNotFound, *req.ContractID)
			}
			return nil, fmt.Errorf("failed to load contract: %w", err)
		}
		draft.ContractID = req.ContractID
	}

	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	s.logger.Info("draft created",
		zap.String("draft_id", draft.ID.String()),
		zap.String("kind", string(draft.Kind)),
		zap.String("created_by", createdBy))

	dto, err := mapper.ToDraftDTO(draft)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// GetDraft loads a draft by id
func (s *DraftService) GetDraft(ctx context.Context, id uuid.UUID) (*domain.DraftDTO, error) {
	draft, err := s.getDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	dto, err := mapper.ToDraftDTO(draft)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListDrafts returns the caller's in-progress drafts
func (s *DraftService) ListDrafts(ctx context.Context, createdBy string) ([]domain.DraftDTO, error) {
	drafts, err := s.drafts.ListByUser(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	dtos := make([]domain.DraftDTO, 0, len(drafts))
	for i := range drafts {
		dto, err := mapper.ToDraftDTO(&drafts[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// UpdateDraft patches scalar form fields. Nil request fields are left
// unchanged; any applied change marks the draft dirty.
func (s *DraftService) UpdateDraft(ctx context.Context, id uuid.UUID, req *domain.UpdateDraftRequest) (*domain.DraftDTO, error) {
	draft, err := s.getDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ProjectID != nil {
		draft.ProjectID = req.ProjectID
	}
	if req.ContractID != nil {
		draft.ContractID = req.ContractID
	}
	if req.SubcontractorID != nil {
		sub, err := s.subcontractors.GetByID(ctx, *req.SubcontractorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: subcontractor %d", ErrNotFound, *req.SubcontractorID)
			}
			return nil, fmt.Errorf("failed to load subcontractor: %w", err)
		}
		if sub.Status == domain.SubcontractorStatusBlacklisted {
			return nil, fmt.Errorf("%w: %s", ErrSubcontractorBlacklisted, sub.Name)
		}
		draft.SubcontractorID = req.SubcontractorID
	}
	if req.CurrencyID != nil {
		draft.CurrencyID = req.CurrencyID
	}
	if req.SheetName != nil {
		draft.SheetName = *req.SheetName
	}
	if req.ContractNumber != nil {
		draft.ContractNumber = *req.ContractNumber
	}
	if req.Description != nil {
		draft.Description = *req.Description
	}
	if req.StartDate != nil {
		draft.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		draft.EndDate = req.EndDate
	}
	if req.RetentionPercent != nil {
		draft.RetentionPercent = *req.RetentionPercent
	}
	if req.AdvancePercent != nil {
		draft.AdvancePercent = *req.AdvancePercent
	}
	if req.PaymentTermDays != nil {
		draft.PaymentTermDays = *req.PaymentTermDays
	}
	if req.BuildingIDs != nil {
		draft.BuildingIDs = *req.BuildingIDs
	}

	draft.Dirty = true

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	dto, err := mapper.ToDraftDTO(draft)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Next advances the wizard one step, gated by the current step's
// validator. The stored draft is only written when navigation succeeds.
func (s *DraftService) Next(ctx context.Context, id uuid.UUID) (*domain.DraftDTO, error) {
	return s.navigate(ctx, id, func(m *wizard.Machine, draft *domain.WizardDraft, grid boq.Grid) error {
		return m.Next(draft, grid)
	})
}

// Previous steps back one position; a no-op at the first step.
func (s *DraftService) Previous(ctx context.Context, id uuid.UUID) (*domain.DraftDTO, error) {
	return s.navigate(ctx, id, func(m *wizard.Machine, _ *domain.WizardDraft, _ boq.Grid) error {
		m.Previous()
		return nil
	})
}

// GoToStep jumps directly to a completed step or the current one.
func (s *DraftService) GoToStep(ctx context.Context, id uuid.UUID, step string) (*domain.DraftDTO, error) {
	return s.navigate(ctx, id, func(m *wizard.Machine, _ *domain.WizardDraft, _ boq.Grid) error {
		return m.GoTo(wizard.Step(step))
	})
}

func (s *DraftService) navigate(ctx context.Context, id uuid.UUID, move func(*wizard.Machine, *domain.WizardDraft, boq.Grid) error) (*domain.DraftDTO, error) {
	draft, err := s.getDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	machine, grid, err := s.restoreMachine(draft)
	if err != nil {
		return nil, err
	}

	if err := move(machine, draft, grid); err != nil {
		return nil, err
	}

	draft.CurrentStep = string(machine.Current())
	draft.CompletedSteps = stepsToStrings(machine.Completed())

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	dto, err := mapper.ToDraftDTO(draft)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Submit turns a draft at its final step into the persisted aggregate.
// Contract drafts become a Contract with items; variation order drafts
// become a VariationOrder against their contract. The draft is deleted
// only after the aggregate is stored; on any failure it survives as-is.
func (s *DraftService) Submit(ctx context.Context, id uuid.UUID) (*domain.ContractDTO, *domain.VariationOrderDTO, error) {
	draft, err := s.getDraft(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	machine, grid, err := s.restoreMachine(draft)
	if err != nil {
		return nil, nil, err
	}
	if !machine.IsLast() {
		return nil, nil, wizard.ErrNotAtFinalStep
	}

	switch draft.Kind {
	case domain.DraftKindVariationOrder:
		vo, err := s.submitVariationOrder(ctx, draft, grid)
		if err != nil {
			return nil, nil, err
		}
		dto := mapper.ToVariationOrderDTO(vo)
		return nil, &dto, nil
	default:
		contract, err := s.submitContract(ctx, draft, grid)
		if err != nil {
			return nil, nil, err
		}
		dto := mapper.ToContractDTO(contract)
		return &dto, nil, nil
	}
}

func (s *DraftService) submitContract(ctx context.Context, draft *domain.WizardDraft, grid boq.Grid) (*domain.Contract, error) {
	if draft.ProjectID == nil || draft.SubcontractorID == nil || draft.CurrencyID == nil {
		return nil, fmt.Errorf("%w: draft is missing required selections", ErrInvalidInput)
	}

	number := draft.ContractNumber
	if number == "" {
		var err error
		number, err = s.nextNumber(ctx, "contract", "CTR")
		if err != nil {
			return nil, err
		}
	} else {
		// User-chosen numbers are not sequence-backed, so collisions
		// have to be caught here.
		_, err := s.contracts.GetByNumber(ctx, number)
		if err == nil {
			return nil, fmt.Errorf("%w: contract number %q already exists", ErrConflict, number)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check contract number: %w", err)
		}
	}

	submission := mapper.ToContractSubmissionDTO(draft, grid)

	contract := &domain.Contract{
		Number:           number,
		ProjectID:        *draft.ProjectID,
		SubcontractorID:  *draft.SubcontractorID,
		CurrencyID:       *draft.CurrencyID,
		SheetName:        draft.SheetName,
		Description:      draft.Description,
		StartDate:        draft.StartDate,
		EndDate:          draft.EndDate,
		RetentionPercent: draft.RetentionPercent,
		AdvancePercent:   draft.AdvancePercent,
		PaymentTermDays:  draft.PaymentTermDays,
		Status:           domain.ContractStatusActive,
		CreatedBy:        draft.CreatedBy,
	}

	for _, block := range submission.Buildings {
		entry := grid.Find(block.BuildingID, block.SheetName)
		for pos, item := range block.BOQsContract {
			contractItem := domain.ContractBOQItem{
				BuildingID:   block.BuildingID,
				SheetName:    block.SheetName,
				Position:     pos,
				No:           item.No,
				Key:          item.Key,
				CostCode:     item.CostCode,
				CostCodeID:   item.CostCodeID,
				Unite:        item.Unite,
				Qte:          item.Qte,
				Pu:           item.Pu,
				TotalPrice:   item.TotalPrice,
				BudgetSource: false,
			}
			if entry != nil {
				contractItem.BuildingName = entry.BuildingName
			}
			contract.Items = append(contract.Items, contractItem)
		}
	}

	// Rows without a unit are carried as items but stay out of the
	// aggregate, matching the draft's displayed total.
	contract.TotalAmount = grid.Total()

	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to persist contract: %w", err)
	}

	if err := s.attachments.ReassignDraftToContract(ctx, draft.ID, contract.ID); err != nil {
		s.logger.Warn("failed to reassign draft attachments",
			zap.String("draft_id", draft.ID.String()),
			zap.Int64("contract_id", contract.ID),
			zap.Error(err))
	}

	if err := s.drafts.Delete(ctx, draft.ID); err != nil {
		s.logger.Warn("failed to delete submitted draft",
			zap.String("draft_id", draft.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("contract submitted",
		zap.Int64("contract_id", contract.ID),
		zap.String("number", contract.Number),
		zap.Float64("total_amount", contract.TotalAmount))

	return contract, nil
}

func (s *DraftService) submitVariationOrder(ctx context.Context, draft *domain.WizardDraft, grid boq.Grid) (*domain.VariationOrder, error) {
	if draft.ContractID == nil {
		return nil, fmt.Errorf("%w: variation order draft has no contract", ErrInvalidInput)
	}

	number, err := s.nextNumber(ctx, "variation_order", "VO")
	if err != nil {
		return nil, err
	}

	vo := &domain.VariationOrder{
		Number:      number,
		ContractID:  *draft.ContractID,
		Description: draft.Description,
		Status:      domain.VariationOrderStatusPending,
		CreatedBy:   draft.CreatedBy,
	}

	for _, entry := range grid {
		pos := 0
		for _, item := range entry.Items {
			if item.IsEmpty() {
				continue
			}
			line := mapper.ToSubmissionItemDTO(item)
			voItem := domain.VariationOrderBOQItem{
				BuildingID:   entry.BuildingID,
				BuildingName: entry.BuildingName,
				SheetName:    entry.SheetName,
				Position:     pos,
				No:           line.No,
				Key:          line.Key,
				CostCode:     line.CostCode,
				CostCodeID:   line.CostCodeID,
				Unite:        line.Unite,
				Qte:          line.Qte,
				Pu:           line.Pu,
				TotalPrice:   line.TotalPrice,
				BudgetSource: item.BudgetSource,
			}
			vo.Items = append(vo.Items, voItem)
			pos++
		}
	}

	// Deduction scopes produce a negative amount. Unit-less rows are
	// excluded, same as the draft's displayed total.
	vo.Amount = grid.Total()

	if err := s.variations.Create(ctx, vo); err != nil {
		return nil, fmt.Errorf("failed to persist variation order: %w", err)
	}

	if err := s.drafts.Delete(ctx, draft.ID); err != nil {
		s.logger.Warn("failed to delete submitted draft",
			zap.String("draft_id", draft.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("variation order submitted",
		zap.Int64("variation_order_id", vo.ID),
		zap.String("number", vo.Number),
		zap.Float64("amount", vo.Amount))

	return vo, nil
}

// DeleteDraft discards a wizard session. Nothing from the draft is
// persisted anywhere else.
func (s *DraftService) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getDraft(ctx, id); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, id)
}

// DeleteIdleDrafts purges drafts untouched for longer than idleFor.
// Called by the cleanup job.
func (s *DraftService) DeleteIdleDrafts(ctx context.Context, idleFor time.Duration) (int64, error) {
	return s.drafts.DeleteIdleBefore(ctx, time.Now().Add(-idleFor))
}

func (s *DraftService) getDraft(ctx context.Context, id uuid.UUID) (*domain.WizardDraft, error) {
	draft, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: draft %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return draft, nil
}

func (s *DraftService) restoreMachine(draft *domain.WizardDraft) (*wizard.Machine, boq.Grid, error) {
	flow := wizard.FlowFor(draft.Kind)
	if flow == nil {
		return nil, nil, fmt.Errorf("%w: unknown draft kind %q", ErrInvalidInput, draft.Kind)
	}

	machine, err := wizard.Restore(flow, wizard.Step(draft.CurrentStep), stepsFromStrings(draft.CompletedSteps))
	if err != nil {
		return nil, nil, err
	}

	grid, err := mapper.GridFromDraft(draft)
	if err != nil {
		return nil, nil, err
	}

	return machine, grid, nil
}

func (s *DraftService) nextNumber(ctx context.Context, kind, prefix string) (string, error) {
	year := time.Now().Year()
	seq, err := s.sequences.NextValue(ctx, fmt.Sprintf("%s-%d", kind, year))
	if err != nil {
		return "", fmt.Errorf("failed to generate %s number: %w", kind, err)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}

func stepsToStrings(steps []wizard.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = string(s)
	}
	return out
}

func stepsFromStrings(names []string) []wizard.Step {
	out := make([]wizard.Step, len(names))
	for i, n := range names {
		out[i] = wizard.Step(n)
	}
	return out
}
