package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/mapper"
	"github.com/buildflow/subcontractor-api/internal/repository"
)

// VariationOrderService serves submitted variation orders and their
// approval workflow
type VariationOrderService struct {
	variations *repository.VariationOrderRepository
	contracts  *repository.ContractRepository
	logger     *zap.Logger
}

// NewVariationOrderService creates a new VariationOrderService
func NewVariationOrderService(
	variations *repository.VariationOrderRepository,
	contracts *repository.ContractRepository,
	logger *zap.Logger,
) *VariationOrderService {
	return &VariationOrderService{
		variations: variations,
		contracts:  contracts,
		logger:     logger,
	}
}

// Get returns one variation order with its items
func (s *VariationOrderService) Get(ctx context.Context, id int64) (*domain.VariationOrderDTO, error) {
	vo, err := s.variations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: variation order %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load variation order: %w", err)
	}

	dto := mapper.ToVariationOrderDTO(vo)
	return &dto, nil
}

// ListByContract returns all variation orders of a contract
func (s *VariationOrderService) ListByContract(ctx context.Context, contractID int64) ([]domain.VariationOrderDTO, error) {
	if _, err := s.contracts.GetByID(ctx, contractID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %d", ErrNotFound, contractID)
		}
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	vos, err := s.variations.ListByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variation orders: %w", err)
	}

	dtos := make([]domain.VariationOrderDTO, len(vos))
	for i := range vos {
		dtos[i] = mapper.ToVariationOrderDTO(&vos[i])
	}
	return dtos, nil
}

// Approve marks a pending variation order approved and folds its amount
// into the contract total.
func (s *VariationOrderService) Approve(ctx context.Context, id int64) error {
	return s.resolve(ctx, id, domain.VariationOrderStatusApproved)
}

// Reject marks a pending variation order rejected
func (s *VariationOrderService) Reject(ctx context.Context, id int64) error {
	return s.resolve(ctx, id, domain.VariationOrderStatusRejected)
}

func (s *VariationOrderService) resolve(ctx context.Context, id int64, status domain.VariationOrderStatus) error {
	vo, err := s.variations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: variation order %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to load variation order: %w", err)
	}

	if vo.Status != domain.VariationOrderStatusPending {
		return fmt.Errorf("%w: variation order %d is already %s", ErrConflict, id, vo.Status)
	}

	if err := s.variations.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update variation order: %w", err)
	}

	if status == domain.VariationOrderStatusApproved {
		contract, err := s.contracts.GetByID(ctx, vo.ContractID)
		if err != nil {
			return fmt.Errorf("failed to load contract: %w", err)
		}
		contract.TotalAmount += vo.Amount
		if err := s.contracts.Update(ctx, contract); err != nil {
			return fmt.Errorf("failed to update contract total: %w", err)
		}
	}

	s.logger.Info("variation order resolved",
		zap.Int64("variation_order_id", id),
		zap.String("status", string(status)),
		zap.Float64("amount", vo.Amount))

	return nil
}
