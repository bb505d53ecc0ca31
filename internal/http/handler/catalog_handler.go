package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/service"
)

// CatalogHandler serves the small reference datasets the wizard dropdowns
// are populated from.
type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListTrades godoc
// @Summary List trades
// @Tags Catalog
// @Produce json
// @Success 200 {array} domain.TradeDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /trades [get]
func (h *CatalogHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.catalogService.ListTrades(r.Context())
	if err != nil {
		h.logger.Error("failed to list trades", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// ListCostCodes godoc
// @Summary List cost codes
// @Tags Catalog
// @Produce json
// @Success 200 {array} domain.CostCodeDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cost-codes [get]
func (h *CatalogHandler) ListCostCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.catalogService.ListCostCodes(r.Context())
	if err != nil {
		h.logger.Error("failed to list cost codes", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, codes)
}

// ListCurrencies godoc
// @Summary List currencies
// @Tags Catalog
// @Produce json
// @Success 200 {array} domain.CurrencyDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /currencies [get]
func (h *CatalogHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.catalogService.ListCurrencies(r.Context())
	if err != nil {
		h.logger.Error("failed to list currencies", zap.Error(err))
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, currencies)
}
