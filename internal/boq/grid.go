// Package boq implements the in-memory editing model for a bill of
// quantities: a set of line-item lists keyed by building and sheet,
// with field-level readonly enforcement for rows copied from a
// budget BOQ source.
package boq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Grid operation errors
var (
	// ErrSheetNotFound is returned when no entry exists for the requested building/sheet pair
	ErrSheetNotFound = errors.New("no boq entry for building and sheet")

	// ErrItemNotFound is returned when an item index is out of range
	ErrItemNotFound = errors.New("boq item index out of range")

	// ErrFieldReadonly is returned when editing a locked field of a budget-sourced item
	ErrFieldReadonly = errors.New("field is readonly for budget-sourced items")

	// ErrUnknownField is returned for a field name outside the grid's column set
	ErrUnknownField = errors.New("unknown boq field")

	// ErrInvalidValue is returned when a value cannot be coerced to the field's type
	ErrInvalidValue = errors.New("invalid value for boq field")
)

// Field identifies one editable column of a BOQ row.
type Field string

const (
	FieldNo         Field = "no"
	FieldKey        Field = "key"
	FieldCostCode   Field = "costCode"
	FieldCostCodeID Field = "costCodeId"
	FieldUnite      Field = "unite"
	FieldQte        Field = "qte"
	FieldPu         Field = "pu"
)

// ParseField maps a JSON field name to a Field, reporting ErrUnknownField
// for anything outside the column set.
func ParseField(name string) (Field, error) {
	switch Field(name) {
	case FieldNo, FieldKey, FieldCostCode, FieldCostCodeID, FieldUnite, FieldQte, FieldPu:
		return Field(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// ReadonlyMask is the set of descriptive fields locked on a budget-sourced
// row. Only no, key, costCode and unite are maskable; qte and pu always
// stay editable. It serializes as a JSON array of field names.
type ReadonlyMask uint8

const (
	maskNo ReadonlyMask = 1 << iota
	maskKey
	maskCostCode
	maskUnite
)

// DescriptiveMask locks every maskable field. This is the mask stamped on
// rows merged in from a budget BOQ.
const DescriptiveMask = maskNo | maskKey | maskCostCode | maskUnite

func maskBit(f Field) ReadonlyMask {
	switch f {
	case FieldNo:
		return maskNo
	case FieldKey:
		return maskKey
	case FieldCostCode, FieldCostCodeID:
		return maskCostCode
	case FieldUnite:
		return maskUnite
	default:
		return 0
	}
}

// Has reports whether field f is part of the mask. Non-maskable fields
// (qte, pu) are never part of any mask.
func (m ReadonlyMask) Has(f Field) bool {
	return m&maskBit(f) != 0
}

// MarshalJSON encodes the mask as an array of field names in column order.
func (m ReadonlyMask) MarshalJSON() ([]byte, error) {
	fields := make([]string, 0, 4)
	for _, f := range []Field{FieldNo, FieldKey, FieldCostCode, FieldUnite} {
		if m.Has(f) {
			fields = append(fields, string(f))
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes an array of field names. Names outside the
// maskable set are dropped rather than rejected, so payloads that list
// qte or pu degrade to the valid subset.
func (m *ReadonlyMask) UnmarshalJSON(data []byte) error {
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var mask ReadonlyMask
	for _, name := range fields {
		mask |= maskBit(Field(name))
	}
	*m = mask
	return nil
}

// Item is one row of a bill of quantities. ID 0 marks a row not yet
// persisted server-side. TotalPrice is intentionally absent: it is
// derived as Qte*Pu at serialization time and never stored.
type Item struct {
	ID           int64        `json:"id"`
	No           string       `json:"no"`
	Key          string       `json:"key"`
	CostCode     string       `json:"costCode"`
	CostCodeID   int64        `json:"costCodeId,omitempty"`
	Unite        string       `json:"unite"`
	Qte          float64      `json:"qte"`
	Pu           float64      `json:"pu"`
	BudgetSource bool         `json:"budgetSource,omitempty"`
	Readonly     ReadonlyMask `json:"readonly,omitempty"`
}

// Total returns the derived line total.
func (it Item) Total() float64 {
	return it.Qte * it.Pu
}

// IsEmpty reports whether the row is a blank placeholder: all descriptive
// fields empty and both numeric fields zero.
func (it Item) IsEmpty() bool {
	return it.No == "" && it.Key == "" && it.CostCode == "" && it.Unite == "" &&
		it.Qte == 0 && it.Pu == 0
}

// IsFieldReadonly reports whether field f of the item rejects edits.
// Only budget-sourced items can carry locked fields.
func IsFieldReadonly(it Item, f Field) bool {
	return it.BudgetSource && it.Readonly.Has(f)
}

// BuildingBOQ holds the ordered items of one building within one sheet.
// BuildingName is a denormalized copy taken when the entry is created.
type BuildingBOQ struct {
	BuildingID   int64  `json:"buildingId"`
	BuildingName string `json:"buildingName"`
	SheetName    string `json:"sheetName"`
	Items        []Item `json:"items"`
}

// Grid is the full BOQ state of one draft: at most one BuildingBOQ per
// (buildingID, sheetName) pair.
type Grid []BuildingBOQ

// Find returns the entry for the given building/sheet pair, or nil.
func (g Grid) Find(buildingID int64, sheetName string) *BuildingBOQ {
	for i := range g {
		if g[i].BuildingID == buildingID && g[i].SheetName == sheetName {
			return &g[i]
		}
	}
	return nil
}

// AddItem appends exactly one new row, pre-filled from initial, to the
// entry for the given building/sheet pair, creating that entry if absent.
// The new row always starts unpersisted and editable regardless of what
// initial carries.
func (g *Grid) AddItem(buildingID int64, buildingName, sheetName string, initial Item) *Item {
	item := initial
	item.ID = 0
	item.BudgetSource = false
	item.Readonly = 0

	entry := g.Find(buildingID, sheetName)
	if entry == nil {
		*g = append(*g, BuildingBOQ{
			BuildingID:   buildingID,
			BuildingName: buildingName,
			SheetName:    sheetName,
		})
		entry = &(*g)[len(*g)-1]
	}
	entry.Items = append(entry.Items, item)
	return &entry.Items[len(entry.Items)-1]
}

// UpdateItem sets one field of the item at index within the given
// building/sheet entry. Editing a locked field of a budget-sourced row
// returns ErrFieldReadonly and leaves the item unchanged; qte and pu
// edits always go through. Values are coerced from their JSON decoding:
// strings for descriptive fields, numbers (or numeric strings) for
// qte, pu and costCodeId.
func (g Grid) UpdateItem(buildingID int64, sheetName string, index int, field Field, value interface{}) error {
	entry := g.Find(buildingID, sheetName)
	if entry == nil {
		return ErrSheetNotFound
	}
	if index < 0 || index >= len(entry.Items) {
		return ErrItemNotFound
	}
	item := &entry.Items[index]
	if IsFieldReadonly(*item, field) {
		return fmt.Errorf("%w: %s", ErrFieldReadonly, field)
	}

	switch field {
	case FieldNo, FieldKey, FieldCostCode, FieldUnite:
		s, err := coerceString(value)
		if err != nil {
			return err
		}
		switch field {
		case FieldNo:
			item.No = s
		case FieldKey:
			item.Key = s
		case FieldCostCode:
			item.CostCode = s
		case FieldUnite:
			item.Unite = s
		}
	case FieldQte, FieldPu, FieldCostCodeID:
		f, err := coerceFloat(value)
		if err != nil {
			return err
		}
		switch field {
		case FieldQte:
			item.Qte = f
		case FieldPu:
			item.Pu = f
		case FieldCostCodeID:
			item.CostCodeID = int64(f)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// DeleteItem removes the item at index from the given building/sheet
// entry. The entry itself survives even when its last item is removed.
func (g Grid) DeleteItem(buildingID int64, sheetName string, index int) error {
	entry := g.Find(buildingID, sheetName)
	if entry == nil {
		return ErrSheetNotFound
	}
	if index < 0 || index >= len(entry.Items) {
		return ErrItemNotFound
	}
	entry.Items = append(entry.Items[:index], entry.Items[index+1:]...)
	return nil
}

// MergeBudget upserts the given entries into the grid: each incoming
// building/sheet key replaces its existing entry or is appended, and all
// other keys are left untouched. Every merged item is stamped as
// budget-sourced with its descriptive fields locked.
func (g *Grid) MergeBudget(records []BuildingBOQ) {
	for _, rec := range records {
		stamped := rec
		stamped.Items = make([]Item, len(rec.Items))
		for i, it := range rec.Items {
			it.BudgetSource = true
			it.Readonly = DescriptiveMask
			stamped.Items[i] = it
		}
		if existing := g.Find(rec.BuildingID, rec.SheetName); existing != nil {
			*existing = stamped
		} else {
			*g = append(*g, stamped)
		}
	}
}

// ComputeTotal sums qte*pu over items carrying a unit. Rows without a
// unit are incomplete and excluded.
func ComputeTotal(items []Item) float64 {
	var total float64
	for _, it := range items {
		if strings.TrimSpace(it.Unite) == "" {
			continue
		}
		total += it.Total()
	}
	return total
}

// Total sums ComputeTotal over every entry in the grid.
func (g Grid) Total() float64 {
	var total float64
	for i := range g {
		total += ComputeTotal(g[i].Items)
	}
	return total
}

// HasItems reports whether at least one entry carries a non-empty row.
func (g Grid) HasItems() bool {
	for i := range g {
		for _, it := range g[i].Items {
			if !it.IsEmpty() {
				return true
			}
		}
	}
	return false
}

func coerceString(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, value)
	}
	return s, nil
}

func coerceFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, value)
	}
}
