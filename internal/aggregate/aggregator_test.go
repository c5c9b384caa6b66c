package aggregate

import (
	"testing"

	"catalogapi/internal/domain"
	"catalogapi/internal/normalize"
)

var perImageMapping = []domain.ColumnMapping{
	{Name: "ProductID", Role: domain.RoleProductID},
	{Name: "SKU", Role: domain.RoleSKU},
	{Name: "Img", Role: "image_main", MultiValue: true},
}

func TestGroupMergesRowsBySKU(t *testing.T) {
	rows := [][]string{
		{"P1", "S1", "a.jpg"},
		{"P1", "S1", "b.jpg"},
	}
	grouped := Group(normalize.Rows(rows, perImageMapping))

	if grouped.Len() != 1 {
		t.Fatalf("expected one group, got %d", grouped.Len())
	}
	record := grouped.Get("S1")
	if record == nil {
		t.Fatalf("expected group keyed by S1")
	}
	if len(record.RowIndices) != 2 || record.RowIndices[0] != 2 || record.RowIndices[1] != 3 {
		t.Fatalf("unexpected rowIndices: %v", record.RowIndices)
	}
	urls := record.Fields.ImageURLs["image_main"]
	if len(urls) != 2 || urls[0] != "a.jpg" || urls[1] != "b.jpg" {
		t.Fatalf("unexpected merged urls: %v", urls)
	}
}

func TestGroupFallsBackToProductID(t *testing.T) {
	rows := [][]string{
		{"P9", "", "a.jpg"},
		{"P9", "", "b.jpg"},
	}
	grouped := Group(normalize.Rows(rows, perImageMapping))

	record := grouped.Get("P9")
	if record == nil {
		t.Fatalf("expected group keyed by product_id")
	}
	if record.Fields.Fields[domain.RoleSKU] != "P9" {
		t.Fatalf("expected sku backfilled with resolved key, got %q", record.Fields.Fields[domain.RoleSKU])
	}
}

func TestGroupDropsKeylessRowsSilently(t *testing.T) {
	rows := [][]string{
		{"", "", "orphan.jpg"},
		{"P1", "S1", "a.jpg"},
	}
	grouped := Group(normalize.Rows(rows, perImageMapping))

	if grouped.Len() != 1 {
		t.Fatalf("keyless row should be excluded, got %d groups", grouped.Len())
	}
}

func TestGroupFirstNonEmptyScalarWins(t *testing.T) {
	mapping := append(perImageMapping, domain.ColumnMapping{Name: "Title", Role: domain.RoleProductTitle})
	rows := [][]string{
		{"P1", "S1", "a.jpg", ""},
		{"P1", "S1", "b.jpg", "Late Title"},
		{"P1", "S1", "c.jpg", "Ignored"},
	}
	grouped := Group(normalize.Rows(rows, mapping))

	record := grouped.Get("S1")
	if record.Fields.Fields[domain.RoleProductTitle] != "Late Title" {
		t.Fatalf("expected first non-empty title to win, got %q", record.Fields.Fields[domain.RoleProductTitle])
	}
}

func TestGroupIdempotentOnOneRowPerProduct(t *testing.T) {
	rows := [][]string{
		{"P1", "S1", "a.jpg"},
		{"P2", "S2", "b.jpg"},
		{"P3", "S3", "c.jpg"},
	}
	grouped := Group(normalize.Rows(rows, perImageMapping))

	if grouped.Len() != 3 {
		t.Fatalf("expected one group per row, got %d", grouped.Len())
	}
	for i, key := range grouped.Keys() {
		record := grouped.Get(key)
		if len(record.RowIndices) != 1 || record.RowIndices[0] != i+2 {
			t.Fatalf("group %s should wrap exactly row %d, got %v", key, i+2, record.RowIndices)
		}
	}
}

func TestGroupInsertionOrder(t *testing.T) {
	rows := [][]string{
		{"P2", "S2", "b.jpg"},
		{"P1", "S1", "a.jpg"},
		{"P2", "S2", "c.jpg"},
	}
	grouped := Group(normalize.Rows(rows, perImageMapping))

	keys := grouped.Keys()
	if len(keys) != 2 || keys[0] != "S2" || keys[1] != "S1" {
		t.Fatalf("expected first-occurrence order [S2 S1], got %v", keys)
	}
}
