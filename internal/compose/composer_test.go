package compose

import (
	"reflect"
	"testing"

	"catalogapi/internal/domain"
)

var declared = []string{"col:Main", "col:Extra"}

func TestReplaceAllPerProduct(t *testing.T) {
	next, err := Compose(Request{
		Directive:          DirectiveReplaceAll,
		RowMode:            domain.RowModePerProduct,
		Backing:            list("old", "col:Extra"),
		NewImages:          []string{"a.jpg", " b.jpg "},
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"a.jpg", "b.jpg"}) {
		t.Fatalf("unexpected images: %v", next.Images)
	}
	for _, cat := range next.Categories {
		if cat != "col:Main" {
			t.Fatalf("expected first declared category, got %v", next.Categories)
		}
	}
}

func TestReplaceAllPerImageUsesDefaultCategory(t *testing.T) {
	next, err := Compose(Request{
		Directive: DirectiveReplaceAll,
		RowMode:   domain.RowModePerImage,
		NewImages: []string{"a.jpg"},
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if next.Categories[0] != domain.DefaultImageCategory {
		t.Fatalf("expected default category, got %q", next.Categories[0])
	}
}

func TestReplaceAllThenAddLastEmptyIsNoop(t *testing.T) {
	first, err := Compose(Request{
		Directive:          DirectiveReplaceAll,
		RowMode:            domain.RowModePerProduct,
		NewImages:          []string{"a.jpg", "b.jpg"},
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("replace all: %v", err)
	}
	second, err := Compose(Request{
		Directive:          DirectiveAddLast,
		RowMode:            domain.RowModePerProduct,
		Backing:            first,
		NewImages:          []string{},
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("add last: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("ADD_LAST([]) must be a no-op: %v vs %v", first, second)
	}
}

func TestReplaceOneAtPerImageReplacesEveryOccurrence(t *testing.T) {
	backing := list(
		"a.jpg", domain.DefaultImageCategory,
		"b.jpg", domain.DefaultImageCategory,
		"a.jpg", domain.DefaultImageCategory,
	)
	before := len(backing.DistinctVisible())

	next, err := Compose(Request{
		Directive: DirectiveReplaceOneAt,
		RowMode:   domain.RowModePerImage,
		Backing:   backing,
		NewImages: []string{"x.jpg"},
		Position:  1,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"x.jpg", "b.jpg", "x.jpg"}) {
		t.Fatalf("expected every occurrence replaced, got %v", next.Images)
	}
	if after := len(next.DistinctVisible()); after != before {
		t.Fatalf("distinct count changed: %d -> %d", before, after)
	}
}

func TestReplaceOneAtPreservesCategory(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Extra")
	next, err := Compose(Request{
		Directive:          DirectiveReplaceOneAt,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"x"},
		Position:           1,
		CategoryFilter:     "col:Extra",
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if next.Images[1] != "x" || next.Categories[1] != "col:Extra" {
		t.Fatalf("expected slot 1 replaced with category preserved, got %v / %v", next.Images, next.Categories)
	}
}

func TestReplaceOneAtValidatesPosition(t *testing.T) {
	_, err := Compose(Request{
		Directive: DirectiveReplaceOneAt,
		RowMode:   domain.RowModePerProduct,
		Backing:   list("a", "col:Main"),
		NewImages: []string{"x"},
		Position:  0,
	})
	if err != ErrInvalidPosition {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestReplaceOneAtClampsStalePosition(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Main")
	next, err := Compose(Request{
		Directive:          DirectiveReplaceOneAt,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"x"},
		Position:           9,
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("stale position must not fail: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"a", "x"}) {
		t.Fatalf("expected clamp to last slot, got %v", next.Images)
	}
}

func TestAddLastUsesExplicitThenLastPopulatedCategory(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Extra")

	next, err := Compose(Request{
		Directive:          DirectiveAddLast,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"x"},
		Category:           "col:Extra",
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if next.Categories[next.Len()-1] != "col:Extra" {
		t.Fatalf("expected explicit category, got %v", next.Categories)
	}

	next, err = Compose(Request{
		Directive:          DirectiveAddLast,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"y"},
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if next.Categories[next.Len()-1] != "col:Extra" {
		t.Fatalf("expected last-populated category, got %v", next.Categories)
	}
}

func TestAddBeforeScenario(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Main", "c", "col:Extra")
	next, err := Compose(Request{
		Directive:          DirectiveAddBefore,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"x"},
		Position:           2,
		CategoryFilter:     "col:Main",
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	wantImages := []string{"a", "x", "b", "c"}
	wantCategories := []string{"col:Main", "col:Main", "col:Main", "col:Extra"}
	if !reflect.DeepEqual(next.Images, wantImages) || !reflect.DeepEqual(next.Categories, wantCategories) {
		t.Fatalf("unexpected result: %v / %v", next.Images, next.Categories)
	}
}

func TestAddBeforeZeroInsertsAtScopeStart(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Extra")
	next, err := Compose(Request{
		Directive:          DirectiveAddBefore,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"x"},
		Position:           0,
		CategoryFilter:     "col:Extra",
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"a", "x", "b"}) {
		t.Fatalf("expected insert before first Extra, got %v", next.Images)
	}
}

func TestAddBeforeBeyondEndAppends(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Main")
	next, err := Compose(Request{
		Directive:          DirectiveAddBefore,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"x"},
		Position:           42,
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("beyond-end position must append, got error: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"a", "b", "x"}) {
		t.Fatalf("expected append, got %v", next.Images)
	}
}

func TestAddBeforeEmptyCategoryUsesDeclaredPosition(t *testing.T) {
	threeDeclared := []string{"col:Main", "col:Detail", "col:Extra"}
	backing := list("a", "col:Main", "c", "col:Extra")
	next, err := Compose(Request{
		Directive:          DirectiveAddBefore,
		RowMode:            domain.RowModePerProduct,
		Backing:            backing,
		NewImages:          []string{"d"},
		Position:           1,
		CategoryFilter:     "col:Detail",
		DeclaredCategories: threeDeclared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"a", "d", "c"}) {
		t.Fatalf("expected declared-order insertion between Main and Extra, got %v", next.Images)
	}
	if next.Categories[1] != "col:Detail" {
		t.Fatalf("expected col:Detail tag, got %v", next.Categories)
	}
}

func TestCategorySortIsIdempotentAndStable(t *testing.T) {
	unsorted := list("c", "col:Extra", "a", "col:Main", "b", "col:Main", "z", "col:Unknown")
	req := Request{RowMode: domain.RowModePerProduct, DeclaredCategories: declared}

	once := sortByDeclaredCategories(req, unsorted)
	wantImages := []string{"a", "b", "c", "z"}
	if !reflect.DeepEqual(once.Images, wantImages) {
		t.Fatalf("unexpected sort: %v", once.Images)
	}

	twice := sortByDeclaredCategories(req, once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("sort must be idempotent: %v vs %v", once, twice)
	}
}

func TestPerImageModeNeverReorders(t *testing.T) {
	backing := list("b", domain.DefaultImageCategory, "a", domain.DefaultImageCategory)
	next, err := Compose(Request{
		Directive:          DirectiveAddLast,
		RowMode:            domain.RowModePerImage,
		Backing:            backing,
		NewImages:          []string{"c"},
		DeclaredCategories: declared,
	})
	if err != nil {
		t.Fatalf("compose returned error: %v", err)
	}
	if !reflect.DeepEqual(next.Images, []string{"b", "a", "c"}) {
		t.Fatalf("PER_IMAGE must keep arrival order, got %v", next.Images)
	}
}

func TestUnknownDirective(t *testing.T) {
	if _, err := Compose(Request{Directive: "SHUFFLE"}); err != ErrUnknownDirective {
		t.Fatalf("expected ErrUnknownDirective, got %v", err)
	}
}
