package compose

import (
	"testing"

	"catalogapi/internal/domain"
)

func list(pairs ...string) domain.ImageList {
	// pairs alternate image, category.
	var l domain.ImageList
	for i := 0; i+1 < len(pairs); i += 2 {
		l.Images = append(l.Images, pairs[i])
		l.Categories = append(l.Categories, pairs[i+1])
	}
	return l
}

func TestResolveDisplayPositionPlain(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Main", "c", "col:Extra")

	cases := []struct {
		display int
		want    int
		found   bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 1, true},
		{3, 2, true},
		{4, -1, false},
		{99, -1, false},
	}
	for _, tc := range cases {
		got, found := ResolveDisplayPosition(backing, true, "", tc.display)
		if got != tc.want || found != tc.found {
			t.Fatalf("display %d: got (%d,%v), want (%d,%v)", tc.display, got, found, tc.want, tc.found)
		}
	}
}

func TestResolveDisplayPositionDedupes(t *testing.T) {
	// "a" appears three times; display numbering collapses it to index 0.
	backing := list("a", "col:Main", "a", "col:Main", "b", "col:Main", "a", "col:Main")

	if idx, found := ResolveDisplayPosition(backing, true, "", 2); !found || idx != 2 {
		t.Fatalf("display #2 should resolve to backing index 2 (first b), got (%d,%v)", idx, found)
	}
	if _, found := ResolveDisplayPosition(backing, true, "", 3); found {
		t.Fatalf("only two distinct locations, display #3 must not resolve")
	}
	if idx, found := ResolveDisplayPosition(backing, false, "", 3); !found || idx != 2 {
		t.Fatalf("without dedupe display #3 is backing index 2, got (%d,%v)", idx, found)
	}
}

func TestResolveDisplayPositionCategoryFilter(t *testing.T) {
	backing := list("a", "col:Main", "b", "col:Extra", "c", "col:Main", "d", "col:Extra")

	if idx, found := ResolveDisplayPosition(backing, true, "col:Extra", 1); !found || idx != 1 {
		t.Fatalf("filtered display #1 should be backing index 1, got (%d,%v)", idx, found)
	}
	if idx, found := ResolveDisplayPosition(backing, true, "col:Extra", 2); !found || idx != 3 {
		t.Fatalf("filtered display #2 should be backing index 3, got (%d,%v)", idx, found)
	}
	if _, found := ResolveDisplayPosition(backing, true, "col:Missing", 1); found {
		t.Fatalf("empty scope must not resolve")
	}
}

func TestResolveDisplayPositionSkipsHidden(t *testing.T) {
	backing := list("a", "col:Main", "", "col:Main", "b", "col:Main")

	if idx, found := ResolveDisplayPosition(backing, true, "", 2); !found || idx != 2 {
		t.Fatalf("hidden entry must not be numbered, got (%d,%v)", idx, found)
	}
}

func TestCategoryBoundaryDeclaredOrder(t *testing.T) {
	declared := []string{"col:Main", "col:Detail", "col:Extra"}
	backing := list("a", "col:Main", "b", "col:Extra")

	// Detail is empty; its declared slot is between Main and Extra.
	if at := categoryBoundary(backing, declared, "col:Detail"); at != 1 {
		t.Fatalf("expected boundary 1, got %d", at)
	}
	// Undeclared token appends at the end.
	if at := categoryBoundary(backing, declared, "col:Nope"); at != backing.Len() {
		t.Fatalf("expected list end for undeclared token, got %d", at)
	}
	// Empty category before everything declared-after it.
	if at := categoryBoundary(list("b", "col:Extra"), declared, "col:Main"); at != 0 {
		t.Fatalf("expected boundary 0, got %d", at)
	}
}
