package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project represents a construction project under which contracts are let
type Project struct {
	BaseModel
	Name       string        `gorm:"type:varchar(200);not null;index"`
	Code       string        `gorm:"type:varchar(50);uniqueIndex"`
	ClientName string        `gorm:"type:varchar(200)"`
	City       string        `gorm:"type:varchar(100)"`
	Country    string        `gorm:"type:varchar(100);not null;default:'France'"`
	Status     ProjectStatus `gorm:"type:varchar(50);not null;default:'active';index"`
	StartDate  *time.Time
	EndDate    *time.Time
	Buildings  []Building `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// Building represents one building (block/zone) within a project
type Building struct {
	BaseModel
	ProjectID int64  `gorm:"not null;index;column:project_id"`
	Name      string `gorm:"type:varchar(200);not null"`
	Code      string `gorm:"type:varchar(50)"`
}

// Trade represents a work category; its name doubles as the BOQ sheet name
// (e.g. "Electrical")
type Trade struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Code        string `gorm:"type:varchar(50)"`
	Description string `gorm:"type:varchar(500)"`
}

// SubcontractorStatus represents whether a subcontractor may be contracted
type SubcontractorStatus string

const (
	SubcontractorStatusActive      SubcontractorStatus = "active"
	SubcontractorStatusBlacklisted SubcontractorStatus = "blacklisted"
	SubcontractorStatusInactive    SubcontractorStatus = "inactive"
)

// Subcontractor represents a company that can be awarded a contract
type Subcontractor struct {
	BaseModel
	Name       string              `gorm:"type:varchar(200);not null;index"`
	OrgNumber  string              `gorm:"type:varchar(50);uniqueIndex;column:org_number"`
	Email      string              `gorm:"type:varchar(255)"`
	Phone      string              `gorm:"type:varchar(50)"`
	Address    string              `gorm:"type:varchar(500)"`
	City       string              `gorm:"type:varchar(100)"`
	Country    string              `gorm:"type:varchar(100)"`
	Status     SubcontractorStatus `gorm:"type:varchar(50);not null;default:'active';index"`
	TradeNames pq.StringArray      `gorm:"type:text[];column:trade_names"`
}

// Unit represents a canonical unit-of-measure record in the unit library
type Unit struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created"`
}

// CostCode represents an accounting classification code for BOQ items
type CostCode struct {
	BaseModel
	Code  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Label string `gorm:"type:varchar(200);not null"`
}

// Currency represents a contract currency
type Currency struct {
	BaseModel
	Code   string `gorm:"type:varchar(3);not null;uniqueIndex"`
	Name   string `gorm:"type:varchar(100);not null"`
	Symbol string `gorm:"type:varchar(10)"`
}

// DraftKind distinguishes the two wizard flows
type DraftKind string

const (
	DraftKindContract       DraftKind = "contract"
	DraftKindVariationOrder DraftKind = "variation_order"
)

// WizardDraft holds the server-side state of one in-progress wizard
// session: scalar contract terms, the selected scope, the step machine
// position and the BOQ grid serialized as JSON. Drafts are mutated one
// request at a time and expire after a configurable idle period.
type WizardDraft struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key"`
	Kind             DraftKind      `gorm:"type:varchar(50);not null;index"`
	CurrentStep      string         `gorm:"type:varchar(50);not null"`
	CompletedSteps   pq.StringArray `gorm:"type:text[];column:completed_steps"`
	ProjectID        *int64         `gorm:"column:project_id;index"`
	ContractID       *int64         `gorm:"column:contract_id;index"`
	SubcontractorID  *int64         `gorm:"column:subcontractor_id"`
	CurrencyID       *int64         `gorm:"column:currency_id"`
	SheetName        string         `gorm:"type:varchar(200);column:sheet_name"`
	ContractNumber   string         `gorm:"type:varchar(50);column:contract_number"`
	Description      string         `gorm:"type:varchar(2000)"`
	StartDate        *time.Time     `gorm:"column:start_date"`
	EndDate          *time.Time     `gorm:"column:end_date"`
	RetentionPercent float64        `gorm:"not null;default:0;column:retention_percent"`
	AdvancePercent   float64        `gorm:"not null;default:0;column:advance_percent"`
	PaymentTermDays  int            `gorm:"not null;default:30;column:payment_term_days"`
	BuildingIDs      pq.Int64Array  `gorm:"type:bigint[];column:building_ids"`
	BOQData          string         `gorm:"type:jsonb;column:boq_data"`
	Dirty            bool           `gorm:"not null;default:false"`
	CreatedBy        string         `gorm:"type:varchar(255);column:created_by"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate assigns the draft ID so inserts work on databases without
// a uuid-generating default.
func (d *WizardDraft) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ContractStatus represents the lifecycle state of a submitted contract
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "active"
	ContractStatusCompleted  ContractStatus = "completed"
	ContractStatusTerminated ContractStatus = "terminated"
)

// Contract represents a submitted subcontractor contract. TotalAmount is
// the sum of its item totals at submit time; the per-item total is
// recomputed from qte*pu whenever items change.
type Contract struct {
	BaseModel
	Number           string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProjectID        int64             `gorm:"not null;index;column:project_id"`
	Project          *Project          `gorm:"foreignKey:ProjectID"`
	SubcontractorID  int64             `gorm:"not null;index;column:subcontractor_id"`
	Subcontractor    *Subcontractor    `gorm:"foreignKey:SubcontractorID"`
	CurrencyID       int64             `gorm:"not null;column:currency_id"`
	Currency         *Currency         `gorm:"foreignKey:CurrencyID"`
	SheetName        string            `gorm:"type:varchar(200);not null;column:sheet_name;index"`
	Description      string            `gorm:"type:varchar(2000)"`
	StartDate        *time.Time        `gorm:"column:start_date"`
	EndDate          *time.Time        `gorm:"column:end_date"`
	RetentionPercent float64           `gorm:"not null;default:0;column:retention_percent"`
	AdvancePercent   float64           `gorm:"not null;default:0;column:advance_percent"`
	PaymentTermDays  int               `gorm:"not null;default:30;column:payment_term_days"`
	TotalAmount      float64           `gorm:"not null;default:0;column:total_amount"`
	Status           ContractStatus    `gorm:"type:varchar(50);not null;default:'active';index"`
	CreatedBy        string            `gorm:"type:varchar(255);column:created_by"`
	Items            []ContractBOQItem `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`
}

// ContractBOQItem is one persisted BOQ line of a contract, scoped to a
// building and sheet. Position preserves grid order per building.
type ContractBOQItem struct {
	BaseModel
	ContractID   int64   `gorm:"not null;index;column:contract_id"`
	BuildingID   int64   `gorm:"not null;index;column:building_id"`
	BuildingName string  `gorm:"type:varchar(200);column:building_name"`
	SheetName    string  `gorm:"type:varchar(200);not null;column:sheet_name"`
	Position     int     `gorm:"not null;default:0"`
	No           string  `gorm:"type:varchar(50)"`
	Key          string  `gorm:"type:varchar(1000);column:item_key"`
	CostCode     string  `gorm:"type:varchar(50);column:cost_code"`
	CostCodeID   *int64  `gorm:"column:cost_code_id"`
	Unite        string  `gorm:"type:varchar(50)"`
	Qte          float64 `gorm:"not null;default:0"`
	Pu           float64 `gorm:"not null;default:0"`
	TotalPrice   float64 `gorm:"not null;default:0;column:total_price"`
	BudgetSource bool    `gorm:"not null;default:false;column:budget_source"`
}

// VariationOrderStatus represents the approval state of a variation order
type VariationOrderStatus string

const (
	VariationOrderStatusPending  VariationOrderStatus = "pending"
	VariationOrderStatusApproved VariationOrderStatus = "approved"
	VariationOrderStatusRejected VariationOrderStatus = "rejected"
)

// VariationOrder represents an amendment to an existing contract. Amount
// may be negative for deduction scopes.
type VariationOrder struct {
	BaseModel
	Number      string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	ContractID  int64                   `gorm:"not null;index;column:contract_id"`
	Contract    *Contract               `gorm:"foreignKey:ContractID"`
	Description string                  `gorm:"type:varchar(2000)"`
	Amount      float64                 `gorm:"not null;default:0"`
	Status      VariationOrderStatus    `gorm:"type:varchar(50);not null;default:'pending';index"`
	CreatedBy   string                  `gorm:"type:varchar(255);column:created_by"`
	Items       []VariationOrderBOQItem `gorm:"foreignKey:VariationOrderID;constraint:OnDelete:CASCADE"`
}

// VariationOrderBOQItem is one BOQ line of a variation order
type VariationOrderBOQItem struct {
	BaseModel
	VariationOrderID int64   `gorm:"not null;index;column:variation_order_id"`
	BuildingID       int64   `gorm:"not null;index;column:building_id"`
	BuildingName     string  `gorm:"type:varchar(200);column:building_name"`
	SheetName        string  `gorm:"type:varchar(200);not null;column:sheet_name"`
	Position         int     `gorm:"not null;default:0"`
	No               string  `gorm:"type:varchar(50)"`
	Key              string  `gorm:"type:varchar(1000);column:item_key"`
	CostCode         string  `gorm:"type:varchar(50);column:cost_code"`
	CostCodeID       *int64  `gorm:"column:cost_code_id"`
	Unite            string  `gorm:"type:varchar(50)"`
	Qte              float64 `gorm:"not null;default:0"`
	Pu               float64 `gorm:"not null;default:0"`
	TotalPrice       float64 `gorm:"not null;default:0;column:total_price"`
	BudgetSource     bool    `gorm:"not null;default:false;column:budget_source"`
}

// BudgetBOQLine is a row of the project-level budget BOQ, the
// authoritative source contract items can be copied from. Normally read
// from the ERP warehouse; this table is the local fallback.
type BudgetBOQLine struct {
	BaseModel
	ProjectID  int64   `gorm:"not null;index;column:project_id"`
	BuildingID int64   `gorm:"not null;index;column:building_id"`
	SheetName  string  `gorm:"type:varchar(200);not null;column:sheet_name;index"`
	Position   int     `gorm:"not null;default:0"`
	No         string  `gorm:"type:varchar(50)"`
	Key        string  `gorm:"type:varchar(1000);column:item_key"`
	CostCode   string  `gorm:"type:varchar(50);column:cost_code"`
	CostCodeID *int64  `gorm:"column:cost_code_id"`
	Unite      string  `gorm:"type:varchar(50)"`
	Qte        float64 `gorm:"not null;default:0"`
	Pu         float64 `gorm:"not null;default:0"`
}

// Attachment represents an uploaded file linked to a draft or contract
type Attachment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	FileName    string     `gorm:"type:varchar(500);not null;column:file_name"`
	ContentType string     `gorm:"type:varchar(200);column:content_type"`
	Size        int64      `gorm:"not null;default:0"`
	StoragePath string     `gorm:"type:varchar(1000);not null;column:storage_path"`
	DraftID     *uuid.UUID `gorm:"type:uuid;column:draft_id;index"`
	ContractID  *int64     `gorm:"column:contract_id;index"`
	UploadedBy  string     `gorm:"type:varchar(255);column:uploaded_by"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the attachment ID client-side.
func (a *Attachment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NumberSequence backs gap-free document numbering (contracts, VOs)
type NumberSequence struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	LastValue int64     `gorm:"not null;default:0;column:last_value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
