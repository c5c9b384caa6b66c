package override

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalogapi/internal/aggregate"
	"catalogapi/internal/compose"
	"catalogapi/internal/domain"
	"catalogapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store orchestrates edit saves: it seeds the composer with the current
// backing list, runs the directive, and persists the resulting override.
type Store struct {
	catalogs    repository.CatalogRepository
	overrides   repository.OverrideRepository
	generations repository.GenerationRepository
	logger      *zap.Logger
}

// NewStore creates the override store service.
func NewStore(
	catalogs repository.CatalogRepository,
	overrides repository.OverrideRepository,
	generations repository.GenerationRepository,
	logger *zap.Logger,
) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		catalogs:    catalogs,
		overrides:   overrides,
		generations: generations,
		logger:      logger,
	}
}

// SaveImagesRequest carries one image edit. The save may target a different
// catalog than the one the images came from, and a product that does not
// exist yet.
type SaveImagesRequest struct {
	CatalogID  uuid.UUID `json:"catalogId"`
	ProductKey string    `json:"productKey"`

	// TargetCatalogID redirects the save to another catalog; the backing
	// list being edited is then the target's.
	TargetCatalogID  *uuid.UUID `json:"targetCatalogId,omitempty"`
	TargetProductKey string     `json:"targetProductKey,omitempty"`

	Directive      compose.Directive `json:"directive"`
	NewImages      []string          `json:"newImages"`
	Position       int               `json:"position,omitempty"`
	CategoryFilter string            `json:"categoryFilter,omitempty"`
	Category       string            `json:"category,omitempty"`

	// NewProduct marks a save against a product that exists only as this
	// override record.
	NewProduct *domain.NewProductDirective `json:"newProduct,omitempty"`
}

// SaveImagesResult returns the composed list alongside the stored record.
type SaveImagesResult struct {
	Override        domain.ImageOverride `json:"override"`
	FinalImages     []string             `json:"finalImages"`
	FinalCategories []string             `json:"finalCategories"`
}

// SaveImages applies the edit against the target catalog's current backing
// list and persists the override under the target identity. The source
// identity is kept for audit on cross-catalog saves.
func (s *Store) SaveImages(ctx context.Context, req SaveImagesRequest) (SaveImagesResult, error) {
	if req.CatalogID == uuid.Nil {
		return SaveImagesResult{}, errors.New("catalog id is required")
	}
	if req.ProductKey == "" {
		return SaveImagesResult{}, errors.New("product key is required")
	}

	targetCatalogID := req.CatalogID
	crossCatalog := false
	if req.TargetCatalogID != nil && *req.TargetCatalogID != uuid.Nil && *req.TargetCatalogID != req.CatalogID {
		targetCatalogID = *req.TargetCatalogID
		crossCatalog = true
	}
	targetKey := req.TargetProductKey
	if targetKey == "" {
		targetKey = req.ProductKey
	}

	catalog, err := s.catalogs.GetByID(ctx, targetCatalogID)
	if err != nil {
		return SaveImagesResult{}, fmt.Errorf("load target catalog: %w", err)
	}
	records, err := aggregate.CatalogRecords(catalog)
	if err != nil {
		return SaveImagesResult{}, fmt.Errorf("compute target records: %w", err)
	}
	existing, err := s.overrides.ListImages(ctx, targetCatalogID)
	if err != nil {
		return SaveImagesResult{}, fmt.Errorf("load overrides: %w", err)
	}

	backing, canonicalKey, directive := s.seedBacking(catalog, records, existing, targetKey, req.NewProduct)

	composed, err := compose.Compose(compose.Request{
		Directive:          req.Directive,
		RowMode:            catalog.RowMode,
		Backing:            backing,
		NewImages:          req.NewImages,
		Position:           req.Position,
		CategoryFilter:     req.CategoryFilter,
		Category:           req.Category,
		DeclaredCategories: catalog.DeclaredImageCategories(),
	})
	if err != nil {
		return SaveImagesResult{}, err
	}

	record := domain.ImageOverride{
		CatalogID:  targetCatalogID,
		ProductKey: canonicalKey,
		Images:     composed.Images,
		Categories: composed.Categories,
		NewProduct: directive,
	}
	if crossCatalog {
		source := req.CatalogID
		record.SourceCatalogID = &source
		record.SourceProductKey = req.ProductKey
	}

	saved, err := s.overrides.PutImage(ctx, record)
	if err != nil {
		return SaveImagesResult{}, fmt.Errorf("persist image override: %w", err)
	}

	s.logger.Info("image override saved",
		zap.String("catalog", targetCatalogID.String()),
		zap.String("product", canonicalKey),
		zap.String("directive", string(req.Directive)),
		zap.Int("images", len(saved.Images)),
		zap.Bool("crossCatalog", crossCatalog),
	)

	return SaveImagesResult{
		Override:        saved,
		FinalImages:     saved.Images,
		FinalCategories: saved.Categories,
	}, nil
}

// seedBacking resolves the product and its current backing list: a stored
// override wins, else the list derives from the product's own row images.
// Unknown keys yield an empty backing list (virtual product).
func (s *Store) seedBacking(
	catalog domain.Catalog,
	records []domain.ProductRecord,
	overrides map[string]domain.ImageOverride,
	targetKey string,
	newProduct *domain.NewProductDirective,
) (domain.ImageList, string, *domain.NewProductDirective) {
	product, found := FindProduct(records, targetKey)
	if !found {
		if o, ok := overrides[targetKey]; ok {
			if newProduct == nil {
				newProduct = o.NewProduct
			}
			return o.List(), targetKey, newProduct
		}
		if newProduct == nil {
			s.logger.Warn("edit targets unknown product without new-product directive",
				zap.String("catalog", catalog.ID.String()),
				zap.String("product", targetKey),
			)
		}
		return domain.ImageList{}, targetKey, newProduct
	}

	if o, ok := FindImageOverride(overrides, product, records); ok {
		return o.List(), product.Key, o.NewProduct
	}
	return RowImageList(catalog, product), product.Key, nil
}

// RowImageList derives a product's initial backing list from its raw row
// images: declared image columns in declaration order under PER_PRODUCT, the
// single default category under PER_IMAGE.
func RowImageList(catalog domain.Catalog, product domain.ProductRecord) domain.ImageList {
	var list domain.ImageList
	for _, col := range catalog.Columns {
		if !col.Mapped() || !domain.IsImageRole(col.Role) {
			continue
		}
		category := domain.CategoryToken(col.Name)
		if catalog.RowMode == domain.RowModePerImage {
			category = domain.DefaultImageCategory
		}
		for _, url := range product.Fields.ImageURLs[col.Role] {
			list.Images = append(list.Images, url)
			list.Categories = append(list.Categories, category)
		}
	}
	return list
}

// SaveText persists one field-level text override.
func (s *Store) SaveText(ctx context.Context, catalogID uuid.UUID, productKey, fieldRole, value string) (domain.TextOverride, error) {
	if catalogID == uuid.Nil {
		return domain.TextOverride{}, errors.New("catalog id is required")
	}
	if productKey == "" {
		return domain.TextOverride{}, errors.New("product key is required")
	}
	if fieldRole == "" {
		return domain.TextOverride{}, errors.New("field role is required")
	}
	saved, err := s.overrides.PutText(ctx, domain.TextOverride{
		CatalogID:  catalogID,
		ProductKey: productKey,
		FieldRole:  fieldRole,
		Value:      value,
	})
	if err != nil {
		return domain.TextOverride{}, fmt.Errorf("persist text override: %w", err)
	}
	return saved, nil
}

// RecordGeneration stores a generation result delivered by the image
// generation collaborator. Its presence marks the product as updated.
func (s *Store) RecordGeneration(ctx context.Context, result domain.GenerationResult) (domain.GenerationResult, error) {
	if result.CatalogID == uuid.Nil {
		return domain.GenerationResult{}, errors.New("catalog id is required")
	}
	if result.ProductKey == "" {
		return domain.GenerationResult{}, errors.New("product key is required")
	}
	if strings.TrimSpace(result.ImageURL) == "" {
		return domain.GenerationResult{}, errors.New("image url is required")
	}
	saved, err := s.generations.Record(ctx, result)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("record generation result: %w", err)
	}
	return saved, nil
}

// ListGenerations returns the AI generation results recorded for a product,
// oldest first.
func (s *Store) ListGenerations(ctx context.Context, catalogID uuid.UUID, productKey string) ([]domain.GenerationResult, error) {
	if catalogID == uuid.Nil {
		return nil, errors.New("catalog id is required")
	}
	if productKey == "" {
		return nil, errors.New("product key is required")
	}
	results, err := s.generations.ListForProduct(ctx, catalogID, productKey)
	if err != nil {
		return nil, fmt.Errorf("list generation results: %w", err)
	}
	return results, nil
}

// DeleteProduct removes a product's overrides, then its generation results.
// Cleanup failures after the primary delete are reported as warnings, not
// rolled back.
func (s *Store) DeleteProduct(ctx context.Context, catalogID uuid.UUID, productKey string) error {
	if err := s.overrides.DeleteForProduct(ctx, catalogID, productKey); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	if err := s.generations.DeleteForProduct(ctx, catalogID, productKey); err != nil {
		s.logger.Warn("failed to clean up generation results after product delete",
			zap.String("catalog", catalogID.String()),
			zap.String("product", productKey),
			zap.Error(err),
		)
	}
	return nil
}
