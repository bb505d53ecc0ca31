package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/buildflow/subcontractor-api/internal/boq"
)

// DTOs for API responses

type ProjectDTO struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Code       string        `json:"code,omitempty"`
	ClientName string        `json:"clientName,omitempty"`
	City       string        `json:"city,omitempty"`
	Country    string        `json:"country"`
	Status     ProjectStatus `json:"status"`
	StartDate  *string       `json:"startDate,omitempty"` // ISO 8601
	EndDate    *string       `json:"endDate,omitempty"`   // ISO 8601
	Buildings  []BuildingDTO `json:"buildings,omitempty"`
}

type BuildingDTO struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
}

type TradeDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

type SubcontractorDTO struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	OrgNumber  string              `json:"orgNumber,omitempty"`
	Email      string              `json:"email,omitempty"`
	Phone      string              `json:"phone,omitempty"`
	Address    string              `json:"address,omitempty"`
	City       string              `json:"city,omitempty"`
	Country    string              `json:"country,omitempty"`
	Status     SubcontractorStatus `json:"status"`
	TradeNames []string            `json:"tradeNames,omitempty"`
}

type CostCodeDTO struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

type CurrencyDTO struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// DraftDTO is the full wizard session state returned to the client.
// TotalAmount is derived from the grid on every read, never stored.
type DraftDTO struct {
	ID               uuid.UUID `json:"id"`
	Kind             DraftKind `json:"kind"`
	CurrentStep      string    `json:"currentStep"`
	CompletedSteps   []string  `json:"completedSteps"`
	ProjectID        *int64    `json:"projectId,omitempty"`
	ContractID       *int64    `json:"contractId,omitempty"`
	SubcontractorID  *int64    `json:"subcontractorId,omitempty"`
	CurrencyID       *int64    `json:"currencyId,omitempty"`
	SheetName        string    `json:"sheetName,omitempty"`
	ContractNumber   string    `json:"contractNumber,omitempty"`
	Description      string    `json:"description,omitempty"`
	StartDate        *string   `json:"startDate,omitempty"` // ISO 8601
	EndDate          *string   `json:"endDate,omitempty"`   // ISO 8601
	RetentionPercent float64   `json:"retentionPercent"`
	AdvancePercent   float64   `json:"advancePercent"`
	PaymentTermDays  int       `json:"paymentTermDays"`
	BuildingIDs      []int64   `json:"buildingIds"`
	BOQData          boq.Grid  `json:"boqData"`
	TotalAmount      float64   `json:"totalAmount"`
	Dirty            bool      `json:"dirty"`
	CreatedAt        string    `json:"createdAt"` // ISO 8601
	UpdatedAt        string    `json:"updatedAt"` // ISO 8601
}

type ContractDTO struct {
	ID               int64                `json:"id"`
	Number           string               `json:"number"`
	ProjectID        int64                `json:"projectId"`
	ProjectName      string               `json:"projectName,omitempty"`
	SubcontractorID  int64                `json:"subcontractorId"`
	Subcontractor    string               `json:"subcontractorName,omitempty"`
	CurrencyID       int64                `json:"currencyId"`
	CurrencyCode     string               `json:"currencyCode,omitempty"`
	SheetName        string               `json:"sheetName"`
	Description      string               `json:"description,omitempty"`
	StartDate        *string              `json:"startDate,omitempty"` // ISO 8601
	EndDate          *string              `json:"endDate,omitempty"`   // ISO 8601
	RetentionPercent float64              `json:"retentionPercent"`
	AdvancePercent   float64              `json:"advancePercent"`
	PaymentTermDays  int                  `json:"paymentTermDays"`
	TotalAmount      float64              `json:"totalAmount"`
	Status           ContractStatus       `json:"status"`
	Items            []ContractBOQItemDTO `json:"items,omitempty"`
	CreatedAt        string               `json:"createdAt"` // ISO 8601
	UpdatedAt        string               `json:"updatedAt"` // ISO 8601
}

type ContractBOQItemDTO struct {
	ID           int64   `json:"id"`
	BuildingID   int64   `json:"buildingId"`
	BuildingName string  `json:"buildingName,omitempty"`
	SheetName    string  `json:"sheetName"`
	No           string  `json:"no"`
	Key          string  `json:"key"`
	CostCode     string  `json:"costCode,omitempty"`
	CostCodeID   *int64  `json:"costCodeId,omitempty"`
	Unite        string  `json:"unite"`
	Qte          float64 `json:"qte"`
	Pu           float64 `json:"pu"`
	TotalPrice   float64 `json:"totalPrice"`
}

type VariationOrderDTO struct {
	ID          int64                `json:"id"`
	Number      string               `json:"number"`
	ContractID  int64                `json:"contractId"`
	Description string               `json:"description,omitempty"`
	Amount      float64              `json:"amount"`
	Status      VariationOrderStatus `json:"status"`
	Items       []ContractBOQItemDTO `json:"items,omitempty"`
	CreatedAt   string               `json:"createdAt"` // ISO 8601
	UpdatedAt   string               `json:"updatedAt"` // ISO 8601
}

type AttachmentDTO struct {
	ID          uuid.UUID  `json:"id"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType,omitempty"`
	Size        int64      `json:"size"`
	DraftID     *uuid.UUID `json:"draftId,omitempty"`
	ContractID  *int64     `json:"contractId,omitempty"`
	CreatedAt   string     `json:"createdAt"` // ISO 8601
}

// UnitMatchResultDTO is the outcome of one unit-matching request. Matched
// false with a nil unit is a valid outcome, not an error.
type UnitMatchResultDTO struct {
	Input   string `json:"input"`
	Matched bool   `json:"matched"`
	Unit    *Unit  `json:"unit,omitempty"`
}

// BOQImportPreviewDTO is the parsed result of an uploaded Excel BOQ:
// candidate items per sheet, never written to the draft automatically.
type BOQImportPreviewDTO struct {
	FileName string              `json:"fileName"`
	Sheets   []BOQImportSheetDTO `json:"sheets"`
}

type BOQImportSheetDTO struct {
	SheetName string     `json:"sheetName"`
	Items     []boq.Item `json:"items"`
	Skipped   int        `json:"skipped"`
}

// Submission payload shapes, the external contract of a draft submit.

// SubmissionBuildingDTO carries one building's items; ReplaceAllItems is
// always true so re-submits replace the building's scope wholesale.
type SubmissionBuildingDTO struct {
	BuildingID      int64               `json:"buildingId"`
	SheetName       string              `json:"sheetName"`
	ReplaceAllItems bool                `json:"replaceAllItems"`
	BOQsContract    []SubmissionItemDTO `json:"boqsContract"`
}

// SubmissionItemDTO is one serialized BOQ line; TotalPrice is computed as
// qte*pu at serialization time and id is 0 for never-persisted rows.
type SubmissionItemDTO struct {
	ID         int64   `json:"id"`
	No         string  `json:"no"`
	Key        string  `json:"key"`
	Unite      string  `json:"unite"`
	Qte        float64 `json:"qte"`
	Pu         float64 `json:"pu"`
	CostCode   string  `json:"costCode"`
	CostCodeID *int64  `json:"costCodeId"`
	TotalPrice float64 `json:"totalPrice"`
}

type ContractSubmissionDTO struct {
	ContractNumber   string                  `json:"contractNumber"`
	ProjectID        int64                   `json:"projectId"`
	SubcontractorID  int64                   `json:"subcontractorId"`
	CurrencyID       int64                   `json:"currencyId"`
	SheetName        string                  `json:"sheetName"`
	Description      string                  `json:"description,omitempty"`
	StartDate        *string                 `json:"startDate,omitempty"`
	EndDate          *string                 `json:"endDate,omitempty"`
	RetentionPercent float64                 `json:"retentionPercent"`
	AdvancePercent   float64                 `json:"advancePercent"`
	PaymentTermDays  int                     `json:"paymentTermDays"`
	Buildings        []SubmissionBuildingDTO `json:"buildings"`
}

// Request types

type CreateDraftRequest struct {
	Kind       DraftKind `json:"kind" validate:"required,oneof=contract variation_order"`
	ContractID *int64    `json:"contractId,omitempty"`
}

// UpdateDraftRequest patches scalar form fields; nil means "leave as is".
type UpdateDraftRequest struct {
	ProjectID        *int64     `json:"projectId,omitempty"`
	ContractID       *int64     `json:"contractId,omitempty"`
	SubcontractorID  *int64     `json:"subcontractorId,omitempty"`
	CurrencyID       *int64     `json:"currencyId,omitempty"`
	SheetName        *string    `json:"sheetName,omitempty" validate:"omitempty,max=200"`
	ContractNumber   *string    `json:"contractNumber,omitempty" validate:"omitempty,max=50"`
	Description      *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	RetentionPercent *float64   `json:"retentionPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	AdvancePercent   *float64   `json:"advancePercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	PaymentTermDays  *int       `json:"paymentTermDays,omitempty" validate:"omitempty,gte=0,lte=365"`
	BuildingIDs      *[]int64   `json:"buildingIds,omitempty"`
}

type AddBOQItemRequest struct {
	BuildingID   int64    `json:"buildingId" validate:"required,gt=0"`
	BuildingName string   `json:"buildingName" validate:"max=200"`
	SheetName    string   `json:"sheetName" validate:"required,max=200"`
	Initial      boq.Item `json:"initial"`
}

type UpdateBOQItemRequest struct {
	BuildingID int64       `json:"buildingId" validate:"required,gt=0"`
	SheetName  string      `json:"sheetName" validate:"required,max=200"`
	Field      string      `json:"field" validate:"required"`
	Value      interface{} `json:"value"`
}

type DeleteBOQItemRequest struct {
	BuildingID int64  `json:"buildingId" validate:"required,gt=0"`
	SheetName  string `json:"sheetName" validate:"required,max=200"`
}

type CopyBudgetBOQRequest struct {
	SheetName   string  `json:"sheetName" validate:"required,max=200"`
	BuildingIDs []int64 `json:"buildingIds" validate:"required,min=1"`
}

type MatchUnitRequest struct {
	Input string `json:"input" validate:"required,max=100"`
}

type CreateUnitRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type UpdateContractStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed terminated"`
}

// UpdateContractItemsRequest re-submits one building's BOQ scope on a
// contract. ReplaceAllItems true swaps the building sheet wholesale;
// false appends the items after the existing rows.
type UpdateContractItemsRequest struct {
	SheetName       string              `json:"sheetName" validate:"required,max=200"`
	ReplaceAllItems bool                `json:"replaceAllItems"`
	Items           []SubmissionItemDTO `json:"items" validate:"required,min=1"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

type SubmitResultDTO struct {
	Contract       *ContractDTO       `json:"contract,omitempty"`
	VariationOrder *VariationOrderDTO `json:"variationOrder,omitempty"`
}
