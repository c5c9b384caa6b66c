// Package compose computes the next ordered, categorized export image list
// for a product after an edit. All directives operate on the full backing
// list while user-facing positions are numbered against a deduplicated,
// visible-only, optionally category-filtered view of it.
package compose

import (
	"errors"
	"sort"
	"strings"

	"catalogapi/internal/domain"
)

// Directive names one edit operation against a product's image list.
type Directive string

const (
	DirectiveReplaceAll   Directive = "REPLACE_ALL"
	DirectiveReplaceOneAt Directive = "REPLACE_ONE_AT"
	DirectiveAddLast      Directive = "ADD_LAST"
	DirectiveAddBefore    Directive = "ADD_BEFORE"
)

var (
	// ErrInvalidPosition is returned when a directive's display position is
	// not a positive integer (REPLACE_ONE_AT) or is negative (ADD_BEFORE).
	ErrInvalidPosition = errors.New("edit position must be a positive integer")
	// ErrNoReplacementImage is returned when REPLACE_ONE_AT carries no image.
	ErrNoReplacementImage = errors.New("replace directive requires a new image")
	// ErrUnknownDirective is returned for an unrecognized directive name.
	ErrUnknownDirective = errors.New("unknown edit directive")
)

// Request carries one edit against a product's current backing list.
type Request struct {
	Directive Directive
	RowMode   domain.RowMode
	Backing   domain.ImageList
	NewImages []string

	// Position is the 1-based display position for REPLACE_ONE_AT and
	// ADD_BEFORE. For ADD_BEFORE, 0 means the start of the scope.
	Position int
	// CategoryFilter restricts position numbering to one category token.
	CategoryFilter string
	// Category is the explicit target category for ADD_LAST.
	Category string
	// DeclaredCategories are the catalog's image category tokens in
	// declaration order.
	DeclaredCategories []string
}

// Compose applies the edit and returns the next backing list. Stale display
// positions clamp to the nearest valid boundary; the only hard failures are
// malformed positions and an imageless replace.
func Compose(req Request) (domain.ImageList, error) {
	next := req.Backing.Clone()
	if next.Categories == nil {
		next.Categories = []string{}
	}
	if next.Images == nil {
		next.Images = []string{}
	}

	var err error
	switch req.Directive {
	case DirectiveReplaceAll:
		next = replaceAll(req)
	case DirectiveReplaceOneAt:
		next, err = replaceOneAt(req, next)
	case DirectiveAddLast:
		next = addLast(req, next)
	case DirectiveAddBefore:
		next, err = addBefore(req, next)
	default:
		return req.Backing, ErrUnknownDirective
	}
	if err != nil {
		return req.Backing, err
	}

	return sortByDeclaredCategories(req, next), nil
}

func replaceAll(req Request) domain.ImageList {
	category := domain.DefaultImageCategory
	if req.RowMode == domain.RowModePerProduct && len(req.DeclaredCategories) > 0 {
		category = req.DeclaredCategories[0]
	}
	images := cleanImages(req.NewImages)
	categories := make([]string, len(images))
	for i := range categories {
		categories[i] = category
	}
	return domain.ImageList{Images: images, Categories: categories}
}

func replaceOneAt(req Request, next domain.ImageList) (domain.ImageList, error) {
	if req.Position < 1 {
		return next, ErrInvalidPosition
	}
	images := cleanImages(req.NewImages)
	if len(images) == 0 {
		return next, ErrNoReplacementImage
	}
	newLocation := images[0]

	idx, found := ResolveDisplayPosition(next, true, req.CategoryFilter, req.Position)
	if !found {
		// Stale caller state: clamp to the last in-scope slot, or append
		// at the category boundary when the scope is empty.
		if end := scopeEnd(next, true, req.CategoryFilter); end > 0 {
			idx = end - 1
		} else {
			at := categoryBoundary(next, req.DeclaredCategories, req.CategoryFilter)
			category := req.CategoryFilter
			if category == "" {
				category = domain.DefaultImageCategory
				if req.RowMode == domain.RowModePerProduct && len(req.DeclaredCategories) > 0 {
					category = req.DeclaredCategories[0]
				}
			}
			return insertAt(next, clampIndex(at, next.Len()), []string{newLocation}, category), nil
		}
	}

	if req.RowMode == domain.RowModePerImage {
		// One location is substituted everywhere it appears so the
		// distinct-location count is unchanged.
		oldLocation := next.Images[idx]
		for i := range next.Images {
			if next.Images[i] == oldLocation {
				next.Images[i] = newLocation
			}
		}
		return next, nil
	}

	next.Images[idx] = newLocation
	return next, nil
}

func addLast(req Request, next domain.ImageList) domain.ImageList {
	images := cleanImages(req.NewImages)
	if len(images) == 0 {
		return next
	}
	category := req.Category
	if category == "" {
		category = lastPopulatedCategory(next)
	}
	if category == "" {
		if req.RowMode == domain.RowModePerProduct && len(req.DeclaredCategories) > 0 {
			category = req.DeclaredCategories[0]
		} else {
			category = domain.DefaultImageCategory
		}
	}
	return insertAt(next, next.Len(), images, category)
}

func addBefore(req Request, next domain.ImageList) (domain.ImageList, error) {
	if req.Position < 0 {
		return next, ErrInvalidPosition
	}
	images := cleanImages(req.NewImages)
	if len(images) == 0 {
		return next, nil
	}

	at := -1
	category := req.CategoryFilter
	if idx, found := ResolveDisplayPosition(next, true, req.CategoryFilter, req.Position); found {
		at = idx
		if category == "" {
			category = next.Categories[idx]
		}
	} else if end := scopeEnd(next, true, req.CategoryFilter); end >= 0 {
		// Beyond the last visible item: append at the end of the scope.
		at = end
		if category == "" {
			category = next.Categories[end-1]
		}
	} else {
		// No visible members in scope: the declared category order decides
		// the boundary; unknown tokens fall back to the list end.
		at = categoryBoundary(next, req.DeclaredCategories, req.CategoryFilter)
		if category == "" {
			category = lastPopulatedCategory(next)
			if category == "" {
				category = domain.DefaultImageCategory
			}
		}
	}

	return insertAt(next, clampIndex(at, next.Len()), images, category), nil
}

// sortByDeclaredCategories re-sorts a PER_PRODUCT backing list into category
// declaration order. The sort is stable on the original index within each
// category, so re-applying it to a sorted list is a no-op and entries never
// reorder within their category.
func sortByDeclaredCategories(req Request, list domain.ImageList) domain.ImageList {
	if req.RowMode != domain.RowModePerProduct || len(req.DeclaredCategories) < 2 || list.Len() < 2 {
		return list
	}
	order := make([]int, list.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return declaredIndex(req.DeclaredCategories, list.Categories[order[a]]) <
			declaredIndex(req.DeclaredCategories, list.Categories[order[b]])
	})
	sorted := domain.ImageList{
		Images:     make([]string, list.Len()),
		Categories: make([]string, list.Len()),
	}
	for i, from := range order {
		sorted.Images[i] = list.Images[from]
		sorted.Categories[i] = list.Categories[from]
	}
	return sorted
}

func insertAt(list domain.ImageList, at int, images []string, category string) domain.ImageList {
	out := domain.ImageList{
		Images:     make([]string, 0, list.Len()+len(images)),
		Categories: make([]string, 0, list.Len()+len(images)),
	}
	out.Images = append(out.Images, list.Images[:at]...)
	out.Categories = append(out.Categories, list.Categories[:at]...)
	for _, img := range images {
		out.Images = append(out.Images, img)
		out.Categories = append(out.Categories, category)
	}
	out.Images = append(out.Images, list.Images[at:]...)
	out.Categories = append(out.Categories, list.Categories[at:]...)
	return out
}

func lastPopulatedCategory(list domain.ImageList) string {
	for i := list.Len() - 1; i >= 0; i-- {
		if list.Visible(i) && list.Categories[i] != "" {
			return list.Categories[i]
		}
	}
	return ""
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}
