package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/mapper"
	"github.com/buildflow/subcontractor-api/internal/repository"
)

// ProjectService serves projects and their buildings to the wizard
type ProjectService struct {
	projects *repository.ProjectRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projects *repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// List returns a page of projects with an optional name/code search
func (s *ProjectService) List(ctx context.Context, page, pageSize int, search string) ([]domain.ProjectDTO, int64, error) {
	projects, total, err := s.projects.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = mapper.ToProjectDTO(&projects[i])
	}
	return dtos, total, nil
}

// Get returns one project with its buildings preloaded
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.ProjectDTO, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// ListBuildings returns a project's buildings
func (s *ProjectService) ListBuildings(ctx context.Context, projectID int64) ([]domain.BuildingDTO, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	buildings, err := s.projects.ListBuildings(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}

	dtos := make([]domain.BuildingDTO, len(buildings))
	for i := range buildings {
		dtos[i] = mapper.ToBuildingDTO(&buildings[i])
	}
	return dtos, nil
}
