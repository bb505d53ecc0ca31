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

// ContractService serves submitted contracts
type ContractService struct {
	contracts *repository.ContractRepository
}

// NewContractService creates a new ContractService
func NewContractService(contracts *repository.ContractRepository) *ContractService {
	return &ContractService{contracts: contracts}
}

// List returns a page of contracts with optional project, subcontractor
// and text filters
func (s *ContractService) List(ctx context.Context, page, pageSize int, projectID, subcontractorID int64, search string) ([]domain.ContractDTO, int64, error) {
	contracts, total, err := s.contracts.List(ctx, page, pageSize, projectID, subcontractorID, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contracts: %w", err)
	}

	dtos := make([]domain.ContractDTO, len(contracts))
	for i := range contracts {
		dtos[i] = mapper.ToContractDTO(&contracts[i])
	}
	return dtos, total, nil
}

// Get returns one contract with its items in grid order
func (s *ContractService) Get(ctx context.Context, id int64) (*domain.ContractDTO, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	dto := mapper.ToContractDTO(contract)
	return &dto, nil
}

// UpdateBuildingItems re-submits one building's BOQ scope on a contract.
// With replaceAllItems the building sheet is swapped wholesale; without
// it the given items are appended after the existing rows. The contract
// total is re-derived from the stored items either way.
func (s *ContractService) UpdateBuildingItems(ctx context.Context, id, buildingID int64, req *domain.UpdateContractItemsRequest) (*domain.ContractDTO, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	var items []domain.ContractBOQItem
	var buildingName string
	for _, existing := range contract.Items {
		if existing.BuildingID != buildingID || existing.SheetName != req.SheetName {
			continue
		}
		buildingName = existing.BuildingName
		if !req.ReplaceAllItems {
			items = append(items, existing)
		}
	}

	for _, line := range req.Items {
		items = append(items, domain.ContractBOQItem{
			BuildingName: buildingName,
			No:           line.No,
			Key:          line.Key,
			CostCode:     line.CostCode,
			CostCodeID:   line.CostCodeID,
			Unite:        line.Unite,
			Qte:          line.Qte,
			Pu:           line.Pu,
			TotalPrice:   line.Qte * line.Pu,
		})
	}
	for pos := range items {
		items[pos].Position = pos
	}

	if err := s.contracts.ReplaceBuildingItems(ctx, id, buildingID, req.SheetName, items); err != nil {
		return nil, fmt.Errorf("failed to replace contract items: %w", err)
	}
	if err := s.contracts.RecalculateTotal(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to recalculate contract total: %w", err)
	}

	return s.Get(ctx, id)
}

// UpdateStatus moves a contract between lifecycle states
func (s *ContractService) UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus) error {
	switch status {
	case domain.ContractStatusActive, domain.ContractStatusCompleted, domain.ContractStatusTerminated:
	default:
		return fmt.Errorf("%w: unknown contract status %q", ErrInvalidInput, status)
	}

	if _, err := s.contracts.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contract %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to load contract: %w", err)
	}

	return s.contracts.UpdateStatus(ctx, id, status)
}
