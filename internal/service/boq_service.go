package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/erp"
	"github.com/buildflow/subcontractor-api/internal/mapper"
	"github.com/buildflow/subcontractor-api/internal/repository"
	"github.com/buildflow/subcontractor-api/internal/units"
)

// BOQService applies grid operations to a draft's stored BOQ and loads
// budget BOQ data into it. The grid itself is pure; this service owns
// deserialize, mutate, re-serialize around every operation.
type BOQService struct {
	drafts    *repository.DraftRepository
	projects  *repository.ProjectRepository
	budgets   *repository.BudgetBOQRepository
	units     *repository.UnitRepository
	erpClient *erp.Client
	logger    *zap.Logger
}

// NewBOQService creates a new BOQService. erpClient may be nil when the
// warehouse is disabled; budget copies then read the local table.
func NewBOQService(
	drafts *repository.DraftRepository,
	projects *repository.ProjectRepository,
	budgets *repository.BudgetBOQRepository,
	unitRepo *repository.UnitRepository,
	erpClient *erp.Client,
	logger *zap.Logger,
) *BOQService {
	return &BOQService{
		drafts:    drafts,
		projects:  projects,
		budgets:   budgets,
		units:     unitRepo,
		erpClient: erpClient,
		logger:    logger,
	}
}

// GetGrid returns the draft's current BOQ grid
func (s *BOQService) GetGrid(ctx context.Context, draftID uuid.UUID) (boq.Grid, error) {
	draft, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return mapper.GridFromDraft(draft)
}

// AddItem appends one new row, creating the building entry when absent
func (s *BOQService) AddItem(ctx context.Context, draftID uuid.UUID, req *domain.AddBOQItemRequest) (*domain.DraftDTO, error) {
	draft, grid, err := s.loadGrid(ctx, draftID)
	if err != nil {
		return nil, err
	}

	grid.AddItem(req.BuildingID, req.BuildingName, req.SheetName, req.Initial)

	return s.saveGrid(ctx, draft, grid)
}

// UpdateItem writes one field of one row. Readonly and bounds violations
// surface as the grid's sentinel errors with the draft unchanged.
func (s *BOQService) UpdateItem(ctx context.Context, draftID uuid.UUID, index int, req *domain.UpdateBOQItemRequest) (*domain.DraftDTO, error) {
	draft, grid, err := s.loadGrid(ctx, draftID)
	if err != nil {
		return nil, err
	}

	field, err := boq.ParseField(req.Field)
	if err != nil {
		return nil, err
	}

	if err := grid.UpdateItem(req.BuildingID, req.SheetName, index, field, req.Value); err != nil {
		return nil, err
	}

	return s.saveGrid(ctx, draft, grid)
}

// DeleteItem removes one row immediately
func (s *BOQService) DeleteItem(ctx context.Context, draftID uuid.UUID, index int, req *domain.DeleteBOQItemRequest) (*domain.DraftDTO, error) {
	draft, grid, err := s.loadGrid(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if err := grid.DeleteItem(req.BuildingID, req.SheetName, index); err != nil {
		return nil, err
	}

	return s.saveGrid(ctx, draft, grid)
}

// CopyBudgetBOQ loads budget BOQ lines for the requested sheet and
// buildings and merges them into the draft grid. The ERP warehouse is
// the preferred source; the locally mirrored table serves as fallback.
// Merged rows arrive stamped budgetSource with their descriptive fields
// readonly; rows for other buildings are left untouched.
func (s *BOQService) CopyBudgetBOQ(ctx context.Context, draftID uuid.UUID, req *domain.CopyBudgetBOQRequest) (*domain.DraftDTO, error) {
	draft, grid, err := s.loadGrid(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.ProjectID == nil {
		return nil, fmt.Errorf("%w: draft has no project selected", ErrInvalidInput)
	}

	lines, err := s.fetchBudgetLines(ctx, *draft.ProjectID, req.SheetName, req.BuildingIDs)
	if err != nil {
		return nil, err
	}

	buildings, err := s.projects.GetBuildings(ctx, *draft.ProjectID, req.BuildingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load buildings: %w", err)
	}
	names := make(map[int64]string, len(buildings))
	for _, b := range buildings {
		names[b.ID] = b.Name
	}

	unitLibrary, err := s.units.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit library: %w", err)
	}

	records := s.groupBudgetLines(lines, names, unitLibrary)
	grid.MergeBudget(records)

	s.logger.Info("budget BOQ copied into draft",
		zap.String("draft_id", draft.ID.String()),
		zap.String("sheet_name", req.SheetName),
		zap.Int("lines", len(lines)),
		zap.Int("buildings", len(records)))

	return s.saveGrid(ctx, draft, grid)
}

// fetchBudgetLines tries the ERP warehouse first and falls back to the
// local mirror table when the warehouse is disabled or unreachable.
func (s *BOQService) fetchBudgetLines(ctx context.Context, projectID int64, sheetName string, buildingIDs []int64) ([]domain.BudgetBOQLine, error) {
	if s.erpClient.IsEnabled() {
		lines, err := s.erpClient.FetchBudgetBOQ(ctx, projectID, sheetName, buildingIDs)
		if err == nil {
			// Refresh the local mirror so the fallback serves current
			// data the next time the warehouse is down.
			if syncErr := s.budgets.ReplaceProjectSheet(ctx, projectID, sheetName, buildingIDs, lines); syncErr != nil {
				s.logger.Warn("failed to refresh local budget BOQ mirror",
					zap.Int64("project_id", projectID),
					zap.String("sheet_name", sheetName),
					zap.Error(syncErr))
			}
			return lines, nil
		}
		s.logger.Warn("ERP budget BOQ fetch failed, falling back to local table",
			zap.Int64("project_id", projectID),
			zap.String("sheet_name", sheetName),
			zap.Error(err))
	}

	lines, err := s.budgets.ListLines(ctx, projectID, sheetName, buildingIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBudgetSourceUnavailable, err)
	}
	return lines, nil
}

// groupBudgetLines turns flat budget lines into per-building BOQ
// records, normalizing unit spellings against the unit library.
func (s *BOQService) groupBudgetLines(lines []domain.BudgetBOQLine, buildingNames map[int64]string, library []domain.Unit) []boq.BuildingBOQ {
	byBuilding := make(map[int64]*boq.BuildingBOQ)
	order := []int64{}

	for _, line := range lines {
		entry, ok := byBuilding[line.BuildingID]
		if !ok {
			entry = &boq.BuildingBOQ{
				BuildingID:   line.BuildingID,
				BuildingName: buildingNames[line.BuildingID],
				SheetName:    line.SheetName,
			}
			byBuilding[line.BuildingID] = entry
			order = append(order, line.BuildingID)
		}

		unite := line.Unite
		if match := units.FindBestMatch(unite, library); match != nil {
			unite = match.Name
		}

		entry.Items = append(entry.Items, boq.Item{
			ID:         line.ID,
			No:         line.No,
			Key:        line.Key,
			CostCode:   line.CostCode,
			CostCodeID: derefInt64(line.CostCodeID),
			Unite:      unite,
			Qte:        line.Qte,
			Pu:         line.Pu,
		})
	}

	records := make([]boq.BuildingBOQ, 0, len(order))
	for _, id := range order {
		records = append(records, *byBuilding[id])
	}
	return records
}

func (s *BOQService) loadGrid(ctx context.Context, draftID uuid.UUID) (*domain.WizardDraft, boq.Grid, error) {
	draft, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	grid, err := mapper.GridFromDraft(draft)
	if err != nil {
		return nil, nil, err
	}
	return draft, grid, nil
}

func (s *BOQService) saveGrid(ctx context.Context, draft *domain.WizardDraft, grid boq.Grid) (*domain.DraftDTO, error) {
	data, err := json.Marshal(grid)
	if err != nil {
		return nil, fmt.Errorf("failed to encode BOQ grid: %w", err)
	}
	draft.BOQData = string(data)
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

func (s *BOQService) getDraft(ctx context.Context, id uuid.UUID) (*domain.WizardDraft, error) {
	draft, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: draft %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return draft, nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
