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

// SubcontractorService serves the subcontractor directory
type SubcontractorService struct {
	subcontractors *repository.SubcontractorRepository
}

// NewSubcontractorService creates a new SubcontractorService
func NewSubcontractorService(subs *repository.SubcontractorRepository) *SubcontractorService {
	return &SubcontractorService{subcontractors: subs}
}

// List returns a page of subcontractors with optional search and status filters
func (s *SubcontractorService) List(ctx context.Context, page, pageSize int, search string, status domain.SubcontractorStatus) ([]domain.SubcontractorDTO, int64, error) {
	subs, total, err := s.subcontractors.List(ctx, page, pageSize, search, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subcontractors: %w", err)
	}

	dtos := make([]domain.SubcontractorDTO, len(subs))
	for i := range subs {
		dtos[i] = mapper.ToSubcontractorDTO(&subs[i])
	}
	return dtos, total, nil
}

// Get returns one subcontractor
func (s *SubcontractorService) Get(ctx context.Context, id int64) (*domain.SubcontractorDTO, error) {
	sub, err := s.subcontractors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subcontractor %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load subcontractor: %w", err)
	}

	dto := mapper.ToSubcontractorDTO(sub)
	return &dto, nil
}
