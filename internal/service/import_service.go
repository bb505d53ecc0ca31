package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/internal/boq"
	"github.com/buildflow/subcontractor-api/internal/domain"
	"github.com/buildflow/subcontractor-api/internal/units"
)

// ImportService parses uploaded Excel BOQ workbooks into item previews.
// Nothing is written to a draft; the client reviews the preview and adds
// rows through the regular grid operations.
type ImportService struct {
	logger *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(logger *zap.Logger) *ImportService {
	return &ImportService{logger: logger}
}

// headerAliases maps recognized column header spellings (EN/FR) to grid fields
var headerAliases = map[string]boq.Field{
	"no":          boq.FieldNo,
	"n°":          boq.FieldNo,
	"num":         boq.FieldNo,
	"item":        boq.FieldNo,
	"key":         boq.FieldKey,
	"description": boq.FieldKey,
	"designation": boq.FieldKey,
	"désignation": boq.FieldKey,
	"libelle":     boq.FieldKey,
	"libellé":     boq.FieldKey,
	"cost code":   boq.FieldCostCode,
	"costcode":    boq.FieldCostCode,
	"code":        boq.FieldCostCode,
	"unit":        boq.FieldUnite,
	"unite":       boq.FieldUnite,
	"unité":       boq.FieldUnite,
	"u":           boq.FieldUnite,
	"qty":         boq.FieldQte,
	"qte":         boq.FieldQte,
	"qté":         boq.FieldQte,
	"quantity":    boq.FieldQte,
	"quantite":    boq.FieldQte,
	"quantité":    boq.FieldQte,
	"pu":          boq.FieldPu,
	"unit price":  boq.FieldPu,
	"prix unitaire": boq.FieldPu,
}

// Preview parses the workbook and returns candidate items per sheet.
// Sheets without a recognizable header row are returned empty with all
// their rows counted as skipped. Rows that fail numeric parsing or come
// out empty are skipped, not errors.
func (s *ImportService) Preview(r io.Reader, fileName string) (*domain.BOQImportPreviewDTO, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable Excel workbook: %v", ErrInvalidInput, err)
	}
	defer wb.Close()

	preview := &domain.BOQImportPreviewDTO{
		FileName: fileName,
		Sheets:   []domain.BOQImportSheetDTO{},
	}

	for _, sheetName := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheetName)
		if err != nil {
			s.logger.Warn("failed to read sheet, skipping",
				zap.String("file", fileName),
				zap.String("sheet", sheetName),
				zap.Error(err))
			continue
		}

		sheet := s.parseSheet(sheetName, rows)
		preview.Sheets = append(preview.Sheets, sheet)
	}

	return preview, nil
}

func (s *ImportService) parseSheet(sheetName string, rows [][]string) domain.BOQImportSheetDTO {
	sheet := domain.BOQImportSheetDTO{
		SheetName: sheetName,
		Items:     []boq.Item{},
	}

	headerRow, columns := findHeader(rows)
	if columns == nil {
		sheet.Skipped = len(rows)
		return sheet
	}

	for _, row := range rows[headerRow+1:] {
		item, ok := parseRow(row, columns)
		if !ok {
			sheet.Skipped++
			continue
		}
		if item.IsEmpty() {
			continue
		}
		sheet.Items = append(sheet.Items, item)
	}

	return sheet
}

// findHeader scans the first rows for one containing at least a
// description and a quantity column.
func findHeader(rows [][]string) (int, map[int]boq.Field) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}

	for i := 0; i < limit; i++ {
		columns := map[int]boq.Field{}
		for col, cell := range rows[i] {
			name := strings.ToLower(strings.TrimSpace(cell))
			if field, ok := headerAliases[name]; ok {
				if _, taken := fieldTaken(columns, field); !taken {
					columns[col] = field
				}
			}
		}
		if _, hasKey := fieldTaken(columns, boq.FieldKey); hasKey {
			if _, hasQte := fieldTaken(columns, boq.FieldQte); hasQte {
				return i, columns
			}
		}
	}
	return 0, nil
}

func fieldTaken(columns map[int]boq.Field, field boq.Field) (int, bool) {
	for col, f := range columns {
		if f == field {
			return col, true
		}
	}
	return 0, false
}

func parseRow(row []string, columns map[int]boq.Field) (boq.Item, bool) {
	var item boq.Item

	for col, field := range columns {
		if col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}

		switch field {
		case boq.FieldNo:
			item.No = value
		case boq.FieldKey:
			item.Key = value
		case boq.FieldCostCode:
			item.CostCode = value
		case boq.FieldUnite:
			// Guard against misaligned sheets putting prose in the unit column
			if units.IsLikelyUnit(value) {
				item.Unite = value
			}
		case boq.FieldQte:
			f, err := parseNumber(value)
			if err != nil {
				return boq.Item{}, false
			}
			item.Qte = f
		case boq.FieldPu:
			f, err := parseNumber(value)
			if err != nil {
				return boq.Item{}, false
			}
			item.Pu = f
		}
	}

	return item, true
}

// parseNumber accepts both 1,234.56 and French 1 234,56 spellings
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}
