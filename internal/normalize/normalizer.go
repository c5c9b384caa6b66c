// Package normalize maps raw spreadsheet rows onto typed field records using
// a catalog's column mapping. Everything here is pure: malformed cells coerce
// to empty values or nil numbers, never errors, because this sits on an
// interactive editing path.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"catalogapi/internal/domain"
)

// Row normalizes one raw row. rowIndex is 1-based counting from the header
// row, so the first data row is 2. Rows shorter than the mapping yield empty
// values for the missing cells.
func Row(raw []string, mapping []domain.ColumnMapping, rowIndex int) domain.FieldRecord {
	record := domain.NewFieldRecord(rowIndex)

	for i, col := range mapping {
		if !col.Mapped() {
			continue
		}
		cell := ""
		if i < len(raw) {
			cell = strings.TrimSpace(raw[i])
		}

		role := col.Role
		switch {
		case domain.IsImageRole(role):
			record.ImageURLs[role] = splitCell(cell, col)
		case domain.NumericRoles[role]:
			record.Numeric[role] = parseNumber(cell)
		case domain.StandardRoles[role]:
			record.Fields[role] = cell
		default:
			record.Attributes[role] = cell
		}
	}

	return record
}

// Rows normalizes every data row of a catalog in order.
func Rows(dataRows [][]string, mapping []domain.ColumnMapping) []domain.FieldRecord {
	records := make([]domain.FieldRecord, 0, len(dataRows))
	for i, raw := range dataRows {
		records = append(records, Row(raw, mapping, i+2))
	}
	return records
}

// splitCell turns one image cell into an ordered URL list. Multi-value
// columns split on their separator; entries are trimmed and empties dropped,
// so a blank cell yields an empty list rather than [""].
func splitCell(cell string, col domain.ColumnMapping) []string {
	entries := []string{}
	if cell == "" {
		return entries
	}
	if !col.MultiValue {
		return append(entries, cell)
	}
	for _, piece := range strings.Split(cell, col.EffectiveSeparator()) {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			entries = append(entries, piece)
		}
	}
	return entries
}

// parseNumber returns a finite number or nil, never an invalid marker.
func parseNumber(cell string) *float64 {
	if cell == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
