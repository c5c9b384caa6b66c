package compose

import "catalogapi/internal/domain"

// scopeIndices returns the backing indices that participate in the
// user-facing display view, in backing order: visible entries only,
// optionally restricted to one category token, and (when dedupe is on)
// collapsed to the first occurrence of each image location within the scope.
func scopeIndices(backing domain.ImageList, dedupe bool, categoryFilter string) []int {
	seen := make(map[string]bool, backing.Len())
	var scope []int
	for i := 0; i < backing.Len(); i++ {
		if !backing.Visible(i) {
			continue
		}
		if categoryFilter != "" && backing.Categories[i] != categoryFilter {
			continue
		}
		if dedupe {
			if seen[backing.Images[i]] {
				continue
			}
			seen[backing.Images[i]] = true
		}
		scope = append(scope, i)
	}
	return scope
}

// ResolveDisplayPosition maps a 1-based display position onto a backing
// index. Three coordinate spaces meet here (deduplicated view, category
// filtered view, backing array), so every directive routes through this one
// function.
//
// Returns (backingIndex, true) when the position lands on an entry.
// Position 0 resolves to the first entry of the scope when one exists.
// Positions beyond the scope (or an empty scope) return (len(scope's last
// index)+1 semantics via found=false); callers append at the boundary instead
// of failing, per the stale-client clamping rule.
func ResolveDisplayPosition(backing domain.ImageList, dedupe bool, categoryFilter string, displayIndex int) (int, bool) {
	scope := scopeIndices(backing, dedupe, categoryFilter)
	if len(scope) == 0 {
		return -1, false
	}
	if displayIndex <= 0 {
		return scope[0], true
	}
	if displayIndex <= len(scope) {
		return scope[displayIndex-1], true
	}
	return -1, false
}

// scopeEnd returns the backing index just past the last in-scope entry, or
// -1 when the scope is empty.
func scopeEnd(backing domain.ImageList, dedupe bool, categoryFilter string) int {
	scope := scopeIndices(backing, dedupe, categoryFilter)
	if len(scope) == 0 {
		return -1
	}
	return scope[len(scope)-1] + 1
}

// categoryBoundary returns the backing index where a category with no
// visible members should insert: immediately before the first entry whose
// category is declared *after* the target, so declaration order is honored
// even when the category is currently empty. Undeclared tokens append at the
// list end.
func categoryBoundary(backing domain.ImageList, declared []string, category string) int {
	target := declaredIndex(declared, category)
	if target == len(declared) {
		return backing.Len()
	}
	for i := 0; i < backing.Len(); i++ {
		if declaredIndex(declared, backing.Categories[i]) > target {
			return i
		}
	}
	return backing.Len()
}

// declaredIndex returns a token's position in the declared category order,
// or len(declared) for unknown tokens so they sort after every declared one.
func declaredIndex(declared []string, category string) int {
	for i, token := range declared {
		if token == category {
			return i
		}
	}
	return len(declared)
}

// clampIndex bounds an insertion index to [0, length].
func clampIndex(idx, length int) int {
	if idx < 0 {
		return 0
	}
	if idx > length {
		return length
	}
	return idx
}
