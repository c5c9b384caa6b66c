package override

import (
	"testing"

	"catalogapi/internal/domain"
)

func product(key, sku, productID string, rowIndex int) domain.ProductRecord {
	fields := domain.NewFieldRecord(rowIndex)
	fields.Fields[domain.RoleSKU] = sku
	fields.Fields[domain.RoleProductID] = productID
	return domain.ProductRecord{Key: key, RowIndices: []int{rowIndex}, Fields: fields}
}

func TestFindImageOverrideExactMatch(t *testing.T) {
	p := product("S1", "S1", "P1", 2)
	overrides := map[string]domain.ImageOverride{
		"S1": {ProductKey: "S1", Images: []string{"a.jpg"}},
	}

	o, ok := FindImageOverride(overrides, p, []domain.ProductRecord{p})
	if !ok || o.ProductKey != "S1" {
		t.Fatalf("expected exact match, got (%+v, %v)", o, ok)
	}
}

func TestFindImageOverrideResolvesUniqueAlternate(t *testing.T) {
	// Product addressed as P1; its sku S1 is unique in the catalog, and the
	// override was stored under S1.
	p1 := product("P1", "S1", "P1", 2)
	p2 := product("P2", "S2", "P2", 3)
	overrides := map[string]domain.ImageOverride{
		"S1": {ProductKey: "S1", Images: []string{"a.jpg"}},
	}

	o, ok := FindImageOverride(overrides, p1, []domain.ProductRecord{p1, p2})
	if !ok || o.ProductKey != "S1" {
		t.Fatalf("expected alternate-key resolution, got (%+v, %v)", o, ok)
	}
}

func TestFindImageOverrideRefusesSharedAlternate(t *testing.T) {
	// Both products carry sku SHARED; resolution must not guess.
	p1 := product("P1", "SHARED", "P1", 2)
	p2 := product("P2", "SHARED", "P2", 3)
	overrides := map[string]domain.ImageOverride{
		"SHARED": {ProductKey: "SHARED", Images: []string{"a.jpg"}},
	}

	if _, ok := FindImageOverride(overrides, p1, []domain.ProductRecord{p1, p2}); ok {
		t.Fatalf("shared alternate must resolve to no override")
	}
}

func TestFindImageOverrideRowKeyAlternate(t *testing.T) {
	p := product("P1", "", "P1", 7)
	overrides := map[string]domain.ImageOverride{
		domain.RowKey(7): {ProductKey: domain.RowKey(7), Images: []string{"a.jpg"}},
	}

	if _, ok := FindImageOverride(overrides, p, []domain.ProductRecord{p}); !ok {
		t.Fatalf("expected row-key alternate to resolve")
	}
}

func TestFindTextOverridesAlternate(t *testing.T) {
	p1 := product("P1", "S1", "P1", 2)
	overrides := map[string]map[string]domain.TextOverride{
		"S1": {domain.RoleProductTitle: {ProductKey: "S1", FieldRole: domain.RoleProductTitle, Value: "New"}},
	}

	set := FindTextOverrides(overrides, p1, []domain.ProductRecord{p1})
	if len(set) != 1 || set[domain.RoleProductTitle].Value != "New" {
		t.Fatalf("expected text override via alternate key, got %+v", set)
	}
}

func TestFindProduct(t *testing.T) {
	p1 := product("S1", "S1", "P1", 2)
	p2 := product("S2", "S2", "P2", 3)
	records := []domain.ProductRecord{p1, p2}

	if got, ok := FindProduct(records, "S2"); !ok || got.Key != "S2" {
		t.Fatalf("exact lookup failed: (%+v, %v)", got, ok)
	}
	if got, ok := FindProduct(records, "P1"); !ok || got.Key != "S1" {
		t.Fatalf("alternate lookup failed: (%+v, %v)", got, ok)
	}
	if _, ok := FindProduct(records, "nope"); ok {
		t.Fatalf("unknown key must not resolve")
	}

	// Ambiguous alternate refuses to resolve.
	shared1 := product("A", "X", "", 2)
	shared2 := product("B", "X", "", 3)
	if _, ok := FindProduct([]domain.ProductRecord{shared1, shared2}, "X"); ok {
		t.Fatalf("shared alternate must not resolve")
	}
}
