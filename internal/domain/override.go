package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewProductDirective describes a product that exists only as an override:
// assigned identifiers plus where to slot it into query results, relative to
// an existing product key.
type NewProductDirective struct {
	SKU         string `json:"sku"`
	ProductID   string `json:"productId,omitempty"`
	Title       string `json:"title,omitempty"`
	InsertAfter string `json:"insertAfter,omitempty"`
}

// ImageOverride is the persisted per-product image edit, layered over the
// catalog's raw rows without mutating them. Source identity is retained for
// audit when the save targeted a different catalog than the images came from.
type ImageOverride struct {
	CatalogID        uuid.UUID            `json:"catalogId"`
	ProductKey       string               `json:"productKey"`
	Images           []string             `json:"images"`
	Categories       []string             `json:"categories"`
	SourceCatalogID  *uuid.UUID           `json:"sourceCatalogId,omitempty"`
	SourceProductKey string               `json:"sourceProductKey,omitempty"`
	NewProduct       *NewProductDirective `json:"newProduct,omitempty"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// List returns the override's backing image list.
func (o ImageOverride) List() ImageList {
	return NewImageList(o.Images, o.Categories)
}

// TextOverride is one persisted field-level text edit for a product.
type TextOverride struct {
	CatalogID  uuid.UUID `json:"catalogId"`
	ProductKey string    `json:"productKey"`
	FieldRole  string    `json:"fieldRole"`
	Value      string    `json:"value"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GenerationResult is an AI-generated image recorded by the generation
// collaborator for a product. Its presence marks the product as updated.
type GenerationResult struct {
	ID         uuid.UUID `json:"id"`
	CatalogID  uuid.UUID `json:"catalogId"`
	ProductKey string    `json:"productKey"`
	ImageURL   string    `json:"imageUrl"`
	Prompt     string    `json:"prompt,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
