package domain

import "strings"

const categoryTokenPrefix = "col:"

// DefaultImageCategory tags REPLACE_ALL results in PER_IMAGE mode, where the
// sheet has no per-slot image columns to borrow a name from.
const DefaultImageCategory = categoryTokenPrefix + "Image"

// CategoryToken builds the stable export token for a declared image column.
func CategoryToken(columnName string) string {
	return categoryTokenPrefix + columnName
}

// CategoryDisplayName reverses CategoryToken by stripping the 4-char prefix.
func CategoryDisplayName(token string) string {
	if strings.HasPrefix(token, categoryTokenPrefix) {
		return token[len(categoryTokenPrefix):]
	}
	return token
}

// ImageList is the full persisted, order-significant image list for a
// product. Images and Categories are parallel: Categories[i] is the token of
// the export slot Images[i] belongs to. The deduplicated display view is
// always derived from this list, never stored.
type ImageList struct {
	Images     []string `json:"images"`
	Categories []string `json:"categories"`
}

// NewImageList pairs images with categories, padding categories with "" so
// the parallel-length invariant holds regardless of caller sloppiness.
func NewImageList(images, categories []string) ImageList {
	imgs := append([]string(nil), images...)
	cats := make([]string, len(imgs))
	copy(cats, categories)
	return ImageList{Images: imgs, Categories: cats}
}

// Len returns the backing length.
func (l ImageList) Len() int {
	return len(l.Images)
}

// Clone copies the backing slices.
func (l ImageList) Clone() ImageList {
	return ImageList{
		Images:     append([]string(nil), l.Images...),
		Categories: append([]string(nil), l.Categories...),
	}
}

// Visible reports whether entry i participates in display views. Hidden or
// removed slots are kept as empty locations so sibling indices stay stable.
func (l ImageList) Visible(i int) bool {
	return i >= 0 && i < len(l.Images) && strings.TrimSpace(l.Images[i]) != ""
}

// DistinctVisible returns visible image locations collapsed to their first
// occurrence, in backing order.
func (l ImageList) DistinctVisible() []string {
	indices := l.DistinctVisibleIndices()
	out := make([]string, 0, len(indices))
	for _, i := range indices {
		out = append(out, l.Images[i])
	}
	return out
}

// DistinctVisibleIndices returns the backing indices of the entries
// DistinctVisible keeps.
func (l ImageList) DistinctVisibleIndices() []int {
	seen := make(map[string]bool, len(l.Images))
	var out []int
	for i, img := range l.Images {
		if !l.Visible(i) || seen[img] {
			continue
		}
		seen[img] = true
		out = append(out, i)
	}
	return out
}
