// Package query searches and paginates the canonical per-product view of a
// catalog, merging in override state: per-item updated status, text edits,
// and virtual products that exist only as override records.
package query

import (
	"sort"
	"strings"
	"time"

	"catalogapi/internal/aggregate"
	"catalogapi/internal/domain"
	"catalogapi/internal/override"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// SortUpdated orders results by most recent override first.
	SortUpdated = "updated"
)

// ErrMissingIdentityColumn mirrors the aggregation precondition for callers
// that only import this package.
var ErrMissingIdentityColumn = aggregate.ErrMissingIdentityColumn

// Params select, order, and page the result set.
type Params struct {
	Page        int
	PageSize    int
	Search      string
	Sort        string
	UpdatedOnly bool
}

// Overlay is the override-store state consulted during a query, loaded by
// the caller so the engine itself stays pure.
type Overlay struct {
	Images    map[string]domain.ImageOverride
	Texts     map[string]map[string]domain.TextOverride
	Generated map[string]bool
}

// Item is one product in a query result.
type Item struct {
	Key        string             `json:"key,omitempty"`
	RowIndex   int                `json:"rowIndex,omitempty"`
	RowIndices []int              `json:"rowIndices,omitempty"`
	Fields     domain.FieldRecord `json:"fields"`
	Updated    bool               `json:"updated"`
	Virtual    bool               `json:"virtual,omitempty"`
}

// Result is the paged response envelope.
type Result struct {
	RowMode  domain.RowMode `json:"rowMode"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Total    int            `json:"total"`
	Items    []Item         `json:"items"`
}

// Run executes one query over a consistent snapshot of the catalog's rows.
// Deterministic; empty input yields {total:0, items:[]} without error.
func Run(catalog domain.Catalog, params Params, overlay Overlay) (Result, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result := Result{RowMode: catalog.RowMode, Page: page, PageSize: pageSize, Items: []Item{}}

	records, err := aggregate.CatalogRecords(catalog)
	if err != nil {
		return result, err
	}

	items := buildItems(records, overlay)
	items = mergeVirtualProducts(items, overlay)

	if search := strings.TrimSpace(params.Search); search != "" {
		items = filterItems(items, search)
	}
	if params.UpdatedOnly {
		updated := items[:0:0]
		for _, item := range items {
			if item.Updated {
				updated = append(updated, item)
			}
		}
		items = updated
	}
	if params.Sort == SortUpdated {
		sortByRecency(items, overlay)
	}

	result.Total = len(items)
	start := (page - 1) * pageSize
	if start >= len(items) {
		return result, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	result.Items = items[start:end]
	return result, nil
}

func buildItems(records []domain.ProductRecord, overlay Overlay) []Item {
	items := make([]Item, 0, len(records))
	for _, record := range records {
		item := Item{
			Key:        record.Key,
			RowIndices: record.RowIndices,
			Fields:     record.Fields,
		}
		if len(record.RowIndices) > 0 {
			item.RowIndex = record.RowIndices[0]
		}

		_, hasImages := override.FindImageOverride(overlay.Images, record, records)
		texts := override.FindTextOverrides(overlay.Texts, record, records)
		item.Updated = hasImages || len(texts) > 0 || overlay.Generated[record.Key]

		// Text edits win over raw cell values in the displayed record.
		if len(texts) > 0 {
			fields := record.Fields
			patched := map[string]string{}
			for k, v := range fields.Fields {
				patched[k] = v
			}
			for role, o := range texts {
				patched[role] = o.Value
			}
			fields.Fields = patched
			item.Fields = fields
		}

		items = append(items, item)
	}
	return items
}

// mergeVirtualProducts synthesizes placeholders for override records whose
// product does not exist in the raw rows, slotting each one directly after
// its anchor key (or at the end when the anchor is gone).
func mergeVirtualProducts(items []Item, overlay Overlay) []Item {
	existing := make(map[string]bool, len(items))
	for _, item := range items {
		existing[item.Key] = true
	}

	var virtualKeys []string
	for key, o := range overlay.Images {
		if o.NewProduct != nil && !existing[key] {
			virtualKeys = append(virtualKeys, key)
		}
	}
	if len(virtualKeys) == 0 {
		return items
	}
	sort.Strings(virtualKeys) // deterministic across map iteration

	for _, key := range virtualKeys {
		o := overlay.Images[key]
		fields := domain.NewFieldRecord(0)
		fields.Fields[domain.RoleSKU] = o.NewProduct.SKU
		if fields.Fields[domain.RoleSKU] == "" {
			fields.Fields[domain.RoleSKU] = key
		}
		if o.NewProduct.ProductID != "" {
			fields.Fields[domain.RoleProductID] = o.NewProduct.ProductID
		}
		if o.NewProduct.Title != "" {
			fields.Fields[domain.RoleProductTitle] = o.NewProduct.Title
		}
		placeholder := Item{
			Key:        key,
			RowIndices: []int{},
			Fields:     fields,
			Updated:    true,
			Virtual:    true,
		}

		at := len(items)
		if anchor := o.NewProduct.InsertAfter; anchor != "" {
			for i, item := range items {
				if item.Key == anchor {
					at = i + 1
					break
				}
			}
		}
		items = append(items[:at], append([]Item{placeholder}, items[at:]...)...)
	}
	return items
}

// filterItems keeps items with a case-insensitive substring match in any of
// the fixed search roles.
func filterItems(items []Item, search string) []Item {
	needle := strings.ToLower(search)
	out := items[:0:0]
	for _, item := range items {
		if matches(item.Fields, needle) {
			out = append(out, item)
		}
	}
	return out
}

func matches(fields domain.FieldRecord, needle string) bool {
	for _, role := range domain.SearchRoles {
		if strings.Contains(strings.ToLower(fields.Get(role)), needle) {
			return true
		}
	}
	return false
}

// sortByRecency reorders items with newer override timestamps first, keeping
// base insertion order for ties and untouched products.
func sortByRecency(items []Item, overlay Overlay) {
	recency := func(key string) time.Time {
		var latest time.Time
		if o, ok := overlay.Images[key]; ok && o.UpdatedAt.After(latest) {
			latest = o.UpdatedAt
		}
		for _, o := range overlay.Texts[key] {
			if o.UpdatedAt.After(latest) {
				latest = o.UpdatedAt
			}
		}
		return latest
	}
	sort.SliceStable(items, func(a, b int) bool {
		return recency(items[a].Key).After(recency(items[b].Key))
	})
}
