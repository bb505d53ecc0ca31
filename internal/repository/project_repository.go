package repository

import (
	"context"
	"strings"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Preload("Buildings").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *ProjectRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.Project, int64, error) {
	var projects []domain.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Project{})

	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", searchPattern, searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&projects).Error

	return projects, total, err
}

// ListBuildings returns the buildings of a project in insertion order
func (r *ProjectRepository) ListBuildings(ctx context.Context, projectID int64) ([]domain.Building, error) {
	var buildings []domain.Building
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&buildings).Error
	return buildings, err
}

// GetBuildings returns the subset of a project's buildings matching ids.
// Unknown ids are silently absent from the result.
func (r *ProjectRepository) GetBuildings(ctx context.Context, projectID int64, ids []int64) ([]domain.Building, error) {
	var buildings []domain.Building
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Order("id ASC").
		Find(&buildings).Error
	return buildings, err
}
