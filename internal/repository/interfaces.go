package repository

import (
	"context"
	"errors"

	"catalogapi/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CatalogRepository manages uploaded catalogs and their column mappings.
type CatalogRepository interface {
	Create(ctx context.Context, catalog domain.Catalog) (domain.Catalog, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Catalog, error)
	List(ctx context.Context) ([]domain.Catalog, error)
	UpdateColumnMapping(ctx context.Context, id uuid.UUID, columns []domain.ColumnMapping) (domain.Catalog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OverrideRepository persists per-product edits keyed by
// (catalogID, productKey), plus per-field text overrides.
type OverrideRepository interface {
	GetImage(ctx context.Context, catalogID uuid.UUID, productKey string) (domain.ImageOverride, error)
	ListImages(ctx context.Context, catalogID uuid.UUID) (map[string]domain.ImageOverride, error)
	PutImage(ctx context.Context, o domain.ImageOverride) (domain.ImageOverride, error)

	ListTexts(ctx context.Context, catalogID uuid.UUID) (map[string]map[string]domain.TextOverride, error)
	PutText(ctx context.Context, o domain.TextOverride) (domain.TextOverride, error)

	DeleteForProduct(ctx context.Context, catalogID uuid.UUID, productKey string) error
}

// GenerationRepository stores AI generation results written by the
// generation collaborator; their presence marks a product as updated.
type GenerationRepository interface {
	Record(ctx context.Context, result domain.GenerationResult) (domain.GenerationResult, error)
	ListKeys(ctx context.Context, catalogID uuid.UUID) (map[string]bool, error)
	ListForProduct(ctx context.Context, catalogID uuid.UUID, productKey string) ([]domain.GenerationResult, error)
	DeleteForProduct(ctx context.Context, catalogID uuid.UUID, productKey string) error
}
