// Package aggregate groups normalized per-row records into per-product
// records for the PER_IMAGE row layout, where one product spans several
// consecutive or scattered rows.
package aggregate

import (
	"errors"

	"catalogapi/internal/domain"
	"catalogapi/internal/normalize"
)

// ErrMissingIdentityColumn is returned when PER_IMAGE aggregation is
// requested but neither sku nor product_id is mapped.
var ErrMissingIdentityColumn = errors.New("per-image aggregation requires a sku or product_id column")

// CatalogRecords recomputes the canonical per-product records for a catalog
// from its raw rows. Nothing normalized or aggregated is ever persisted.
// Under PER_PRODUCT each data row becomes one record keyed by sku, then
// product_id, then its row key.
func CatalogRecords(catalog domain.Catalog) ([]domain.ProductRecord, error) {
	normalized := normalize.Rows(catalog.DataRows(), catalog.Columns)

	if catalog.RowMode == domain.RowModePerImage {
		if !catalog.HasIdentityColumn() {
			return nil, ErrMissingIdentityColumn
		}
		return Group(normalized).Records(), nil
	}

	records := make([]domain.ProductRecord, 0, len(normalized))
	for _, record := range normalized {
		key := record.Fields[domain.RoleSKU]
		if key == "" {
			key = record.Fields[domain.RoleProductID]
		}
		if key == "" {
			key = domain.RowKey(record.SourceRowIndex)
		}
		records = append(records, domain.ProductRecord{
			Key:        key,
			RowIndices: []int{record.SourceRowIndex},
			Fields:     record,
		})
	}
	return records, nil
}

// Grouped is an insertion-ordered collection of product records. Order is
// tracked explicitly (hash map plus key list) rather than trusting any
// incidental iteration order.
type Grouped struct {
	keys  []string
	byKey map[string]*domain.ProductRecord
}

// Len returns the number of product groups.
func (g *Grouped) Len() int {
	return len(g.keys)
}

// Keys returns group keys in first-occurrence order.
func (g *Grouped) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Get returns the group for a key, or nil.
func (g *Grouped) Get(key string) *domain.ProductRecord {
	return g.byKey[key]
}

// Records returns the groups in first-occurrence order.
func (g *Grouped) Records() []domain.ProductRecord {
	out := make([]domain.ProductRecord, 0, len(g.keys))
	for _, key := range g.keys {
		out = append(out, *g.byKey[key])
	}
	return out
}

// Group aggregates normalized rows by product key. Key is sku when non-empty,
// else product_id; rows with neither are dropped silently. Scalars are
// first-non-empty-wins across rows; image URL lists concatenate in row
// arrival order; rowIndices stay ascending because rows arrive in order.
func Group(records []domain.FieldRecord) *Grouped {
	grouped := &Grouped{byKey: map[string]*domain.ProductRecord{}}

	for _, record := range records {
		key := resolveKey(record)
		if key == "" {
			continue
		}

		existing, ok := grouped.byKey[key]
		if !ok {
			seed := cloneRecord(record)
			// Every group is self-addressable even when the key came
			// from product_id.
			if seed.Fields[domain.RoleSKU] == "" {
				seed.Fields[domain.RoleSKU] = key
			}
			grouped.byKey[key] = &domain.ProductRecord{
				Key:        key,
				RowIndices: []int{record.SourceRowIndex},
				Fields:     seed,
			}
			grouped.keys = append(grouped.keys, key)
			continue
		}

		existing.RowIndices = append(existing.RowIndices, record.SourceRowIndex)
		mergeInto(&existing.Fields, record)
	}

	return grouped
}

func resolveKey(record domain.FieldRecord) string {
	if sku := record.Fields[domain.RoleSKU]; sku != "" {
		return sku
	}
	return record.Fields[domain.RoleProductID]
}

// mergeInto folds a later row into an existing group. Existing non-empty
// values are never overwritten.
func mergeInto(group *domain.FieldRecord, incoming domain.FieldRecord) {
	for role, urls := range incoming.ImageURLs {
		if len(urls) == 0 {
			continue
		}
		group.ImageURLs[role] = append(group.ImageURLs[role], urls...)
	}
	for role, value := range incoming.Fields {
		if value != "" && group.Fields[role] == "" {
			group.Fields[role] = value
		}
	}
	for role, value := range incoming.Attributes {
		if value != "" && group.Attributes[role] == "" {
			group.Attributes[role] = value
		}
	}
	for role, number := range incoming.Numeric {
		if number != nil && group.Numeric[role] == nil {
			group.Numeric[role] = number
		}
	}
}

func cloneRecord(record domain.FieldRecord) domain.FieldRecord {
	clone := domain.NewFieldRecord(record.SourceRowIndex)
	for k, v := range record.Fields {
		clone.Fields[k] = v
	}
	for k, v := range record.Attributes {
		clone.Attributes[k] = v
	}
	for k, v := range record.Numeric {
		clone.Numeric[k] = v
	}
	for k, v := range record.ImageURLs {
		clone.ImageURLs[k] = append([]string(nil), v...)
	}
	return clone
}
