package service

import (
	"context"
	"fmt"

	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/mapper"
	"github.com/buildflow/subcontractor-api/internal/repository"
)

// CatalogService exposes the reference tables the wizard selects from
type CatalogService struct {
	catalog *repository.CatalogRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// ListTrades returns all trades; a trade's name doubles as BOQ sheet name
func (s *CatalogService) ListTrades(ctx context.Context) ([]domain.TradeDTO, error) {
	trades, err := s.catalog.ListTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	dtos := make([]domain.TradeDTO, len(trades))
	for i := range trades {
		dtos[i] = mapper.ToTradeDTO(&trades[i])
	}
	return dtos, nil
}

// ListCostCodes returns all cost codes
func (s *CatalogService) ListCostCodes(ctx context.Context) ([]domain.CostCodeDTO, error) {
	codes, err := s.catalog.ListCostCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cost codes: %w", err)
	}

	dtos := make([]domain.CostCodeDTO, len(codes))
	for i := range codes {
		dtos[i] = mapper.ToCostCodeDTO(&codes[i])
	}
	return dtos, nil
}

// ListCurrencies returns all currencies
func (s *CatalogService) ListCurrencies(ctx context.Context) ([]domain.CurrencyDTO, error) {
	currencies, err := s.catalog.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}

	dtos := make([]domain.CurrencyDTO, len(currencies))
	for i := range currencies {
		dtos[i] = mapper.ToCurrencyDTO(&currencies[i])
	}
	return dtos, nil
}
