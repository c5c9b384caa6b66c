package domain

import (
	"fmt"
	"strconv"
)

// RowKey builds the row-based fallback identifier for a product that has
// neither sku nor product_id.
func RowKey(rowIndex int) string {
	return fmt.Sprintf("row:%d", rowIndex)
}

// FieldRecord is the normalized projection of one raw row under a column
// mapping. Scalar values are trimmed; numeric roles live in Numeric and are
// nil when the cell did not parse; multi-value image roles keep their URL
// lists in arrival order.
type FieldRecord struct {
	SourceRowIndex int                 `json:"sourceRowIndex"`
	Fields         map[string]string   `json:"fields"`
	Numeric        map[string]*float64 `json:"numeric,omitempty"`
	Attributes     map[string]string   `json:"attributes,omitempty"`
	ImageURLs      map[string][]string `json:"imageUrls,omitempty"`
}

// NewFieldRecord creates an empty record for the given 1-based row index.
func NewFieldRecord(rowIndex int) FieldRecord {
	return FieldRecord{
		SourceRowIndex: rowIndex,
		Fields:         map[string]string{},
		Numeric:        map[string]*float64{},
		Attributes:     map[string]string{},
		ImageURLs:      map[string][]string{},
	}
}

// Get returns the scalar value for a role, checking standard fields, custom
// attributes, then numeric roles (formatted). Missing roles return "".
func (r FieldRecord) Get(role string) string {
	if v, ok := r.Fields[role]; ok && v != "" {
		return v
	}
	if v, ok := r.Attributes[role]; ok && v != "" {
		return v
	}
	if n, ok := r.Numeric[role]; ok && n != nil {
		return strconv.FormatFloat(*n, 'f', -1, 64)
	}
	return ""
}

// ProductRecord is one canonical per-product record. Under PER_PRODUCT it
// wraps a single row; under PER_IMAGE it merges every row sharing a key.
type ProductRecord struct {
	Key        string      `json:"key"`
	RowIndices []int       `json:"rowIndices"`
	Fields     FieldRecord `json:"fields"`
}
