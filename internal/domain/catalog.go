package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RowMode describes how spreadsheet rows map onto products.
type RowMode string

const (
	// RowModePerProduct means one row is one product.
	RowModePerProduct RowMode = "PER_PRODUCT"
	// RowModePerImage means a product spans multiple rows, one image per row.
	RowModePerImage RowMode = "PER_IMAGE"
)

// Semantic column roles. Anything else non-empty is treated as a custom
// attribute role; membership in these sets is the only role check performed.
const (
	RoleSKU          = "sku"
	RoleProductID    = "product_id"
	RoleProductTitle = "product_title"
	RoleCategory     = "category"
	RolePrice        = "price"
	RoleVendorName   = "vendor_name"
	RoleTags         = "tags"
	RoleDescription  = "description"
	RoleIgnore       = "ignore"
)

// StandardRoles enumerates the recognized scalar roles.
var StandardRoles = map[string]bool{
	RoleSKU:          true,
	RoleProductID:    true,
	RoleProductTitle: true,
	RoleCategory:     true,
	RolePrice:        true,
	RoleVendorName:   true,
	RoleTags:         true,
	RoleDescription:  true,
}

// NumericRoles parse to a finite number or nil, never an error.
var NumericRoles = map[string]bool{
	RolePrice: true,
}

// SearchRoles is the fixed field set the query engine matches against.
var SearchRoles = []string{
	RoleSKU,
	RoleProductID,
	RoleProductTitle,
	RoleCategory,
	RoleVendorName,
	RoleTags,
	"attr_color",
	"attr_material",
	RoleDescription,
	RolePrice,
}

// IsImageRole reports whether a role names an image column.
func IsImageRole(role string) bool {
	return strings.HasPrefix(role, "image")
}

// ColumnMapping binds one source column to a semantic role.
type ColumnMapping struct {
	Name       string `json:"name"`
	Role       string `json:"role"` // empty or "ignore" = unmapped
	MultiValue bool   `json:"multiValue"`
	Separator  string `json:"separator"`
}

// Mapped reports whether the column contributes to normalized records.
func (m ColumnMapping) Mapped() bool {
	return m.Role != "" && m.Role != RoleIgnore
}

// EffectiveSeparator returns the multi-value separator, defaulting to ",".
func (m ColumnMapping) EffectiveSeparator() string {
	if strings.TrimSpace(m.Separator) == "" {
		return ","
	}
	return m.Separator
}

// Catalog is one uploaded spreadsheet plus its current column mapping.
// Rows hold the raw parsed sheet with the header at index 0.
type Catalog struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	RowMode   RowMode         `json:"rowMode"`
	Columns   []ColumnMapping `json:"columns"`
	Rows      [][]string      `json:"rows"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewCatalog creates a catalog with a fresh identifier.
func NewCatalog(name string, rowMode RowMode, columns []ColumnMapping, rows [][]string) Catalog {
	now := time.Now()
	return Catalog{
		ID:        uuid.New(),
		Name:      name,
		RowMode:   rowMode,
		Columns:   append([]ColumnMapping(nil), columns...),
		Rows:      rows,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DataRows returns the rows below the header.
func (c Catalog) DataRows() [][]string {
	if len(c.Rows) <= 1 {
		return nil
	}
	return c.Rows[1:]
}

// DeclaredImageCategories returns the category tokens of the image-role
// columns in declaration order.
func (c Catalog) DeclaredImageCategories() []string {
	var tokens []string
	for _, col := range c.Columns {
		if col.Mapped() && IsImageRole(col.Role) {
			tokens = append(tokens, CategoryToken(col.Name))
		}
	}
	return tokens
}

// HasIdentityColumn reports whether sku or product_id is mapped.
func (c Catalog) HasIdentityColumn() bool {
	for _, col := range c.Columns {
		if col.Role == RoleSKU || col.Role == RoleProductID {
			return true
		}
	}
	return false
}
