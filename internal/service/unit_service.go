package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/repository"
	"github.com/buildflow/subcontractor-api/internal/units"
)

// UnitService manages the unit library and answers matching requests
type UnitService struct {
	units  *repository.UnitRepository
	logger *zap.Logger
}

// NewUnitService creates a new UnitService
func NewUnitService(unitRepo *repository.UnitRepository, logger *zap.Logger) *UnitService {
	return &UnitService{
		units:  unitRepo,
		logger: logger,
	}
}

// List returns the whole unit library ordered by name
func (s *UnitService) List(ctx context.Context) ([]domain.Unit, error) {
	return s.units.List(ctx)
}

// Create adds a unit to the library. Names are stored trimmed and
// duplicates are rejected.
func (s *UnitService) Create(ctx context.Context, req *domain.CreateUnitRequest) (*domain.Unit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: unit name is empty", ErrInvalidInput)
	}

	if existing, err := s.units.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: unit %q already exists (id %d)", ErrConflict, name, existing.ID)
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check unit name: %w", err)
	}

	unit := &domain.Unit{Name: name}
	if err := s.units.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	s.logger.Info("unit added to library",
		zap.Int64("unit_id", unit.ID),
		zap.String("name", unit.Name))

	return unit, nil
}

// Match resolves a free-text unit string against the library. A miss
// yields matched=false with a nil unit, never an error.
func (s *UnitService) Match(ctx context.Context, req *domain.MatchUnitRequest) (*domain.UnitMatchResultDTO, error) {
	library, err := s.units.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit library: %w", err)
	}

	match := units.FindBestMatch(req.Input, library)

	result := &domain.UnitMatchResultDTO{
		Input:   req.Input,
		Matched: match != nil,
		Unit:    match,
	}
	return result, nil
}
