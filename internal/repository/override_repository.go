package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalogapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type overrideRepository struct {
	pool *pgxpool.Pool
}

// NewOverrideRepository wires the persisted edit store.
func NewOverrideRepository(pool *pgxpool.Pool) OverrideRepository {
	return &overrideRepository{pool: pool}
}

func (r *overrideRepository) GetImage(ctx context.Context, catalogID uuid.UUID, productKey string) (domain.ImageOverride, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT catalog_id, product_key, images, categories,
		       source_catalog_id, source_product_key, new_product, updated_at
		FROM image_overrides WHERE catalog_id = $1 AND product_key = $2`,
		catalogID, productKey)
	return scanImageOverride(row)
}

func (r *overrideRepository) ListImages(ctx context.Context, catalogID uuid.UUID) (map[string]domain.ImageOverride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT catalog_id, product_key, images, categories,
		       source_catalog_id, source_product_key, new_product, updated_at
		FROM image_overrides WHERE catalog_id = $1`, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list image overrides: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.ImageOverride{}
	for rows.Next() {
		o, err := scanImageOverride(rows)
		if err != nil {
			return nil, err
		}
		out[o.ProductKey] = o
	}
	return out, rows.Err()
}

func (r *overrideRepository) PutImage(ctx context.Context, o domain.ImageOverride) (domain.ImageOverride, error) {
	imagesJSON, err := json.Marshal(o.Images)
	if err != nil {
		return domain.ImageOverride{}, fmt.Errorf("marshal images: %w", err)
	}
	categoriesJSON, err := json.Marshal(o.Categories)
	if err != nil {
		return domain.ImageOverride{}, fmt.Errorf("marshal categories: %w", err)
	}
	var newProductJSON []byte
	if o.NewProduct != nil {
		newProductJSON, err = json.Marshal(o.NewProduct)
		if err != nil {
			return domain.ImageOverride{}, fmt.Errorf("marshal new product directive: %w", err)
		}
	}

	sourceCatalog := pgtype.UUID{}
	if o.SourceCatalogID != nil {
		sourceCatalog = pgtype.UUID{Valid: true}
		copy(sourceCatalog.Bytes[:], (*o.SourceCatalogID)[:])
	}
	sourceKey := pgtype.Text{}
	if o.SourceProductKey != "" {
		sourceKey = pgtype.Text{String: o.SourceProductKey, Valid: true}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO image_overrides
			(catalog_id, product_key, images, categories,
			 source_catalog_id, source_product_key, new_product, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (catalog_id, product_key) DO UPDATE SET
			images = EXCLUDED.images,
			categories = EXCLUDED.categories,
			source_catalog_id = EXCLUDED.source_catalog_id,
			source_product_key = EXCLUDED.source_product_key,
			new_product = EXCLUDED.new_product,
			updated_at = now()`,
		o.CatalogID, o.ProductKey, imagesJSON, categoriesJSON,
		sourceCatalog, sourceKey, newProductJSON,
	)
	if err != nil {
		return domain.ImageOverride{}, fmt.Errorf("upsert image override: %w", err)
	}

	return r.GetImage(ctx, o.CatalogID, o.ProductKey)
}

func (r *overrideRepository) ListTexts(ctx context.Context, catalogID uuid.UUID) (map[string]map[string]domain.TextOverride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT catalog_id, product_key, field_role, value, updated_at
		FROM text_overrides WHERE catalog_id = $1`, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list text overrides: %w", err)
	}
	defer rows.Close()

	out := map[string]map[string]domain.TextOverride{}
	for rows.Next() {
		var o domain.TextOverride
		if err := rows.Scan(&o.CatalogID, &o.ProductKey, &o.FieldRole, &o.Value, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan text override: %w", err)
		}
		if out[o.ProductKey] == nil {
			out[o.ProductKey] = map[string]domain.TextOverride{}
		}
		out[o.ProductKey][o.FieldRole] = o
	}
	return out, rows.Err()
}

func (r *overrideRepository) PutText(ctx context.Context, o domain.TextOverride) (domain.TextOverride, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO text_overrides (catalog_id, product_key, field_role, value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (catalog_id, product_key, field_role) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()
		RETURNING catalog_id, product_key, field_role, value, updated_at`,
		o.CatalogID, o.ProductKey, o.FieldRole, o.Value,
	)
	var saved domain.TextOverride
	if err := row.Scan(&saved.CatalogID, &saved.ProductKey, &saved.FieldRole, &saved.Value, &saved.UpdatedAt); err != nil {
		return domain.TextOverride{}, fmt.Errorf("upsert text override: %w", err)
	}
	return saved, nil
}

func (r *overrideRepository) DeleteForProduct(ctx context.Context, catalogID uuid.UUID, productKey string) error {
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM image_overrides WHERE catalog_id = $1 AND product_key = $2`,
		catalogID, productKey); err != nil {
		return fmt.Errorf("delete image overrides: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM text_overrides WHERE catalog_id = $1 AND product_key = $2`,
		catalogID, productKey); err != nil {
		return fmt.Errorf("delete text overrides: %w", err)
	}
	return nil
}

func scanImageOverride(row pgx.Row) (domain.ImageOverride, error) {
	var (
		o              domain.ImageOverride
		imagesJSON     []byte
		categoriesJSON []byte
		sourceCatalog  pgtype.UUID
		sourceKey      pgtype.Text
		newProductJSON []byte
	)
	err := row.Scan(&o.CatalogID, &o.ProductKey, &imagesJSON, &categoriesJSON,
		&sourceCatalog, &sourceKey, &newProductJSON, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ImageOverride{}, ErrNotFound
		}
		return domain.ImageOverride{}, fmt.Errorf("scan image override: %w", err)
	}
	if err := json.Unmarshal(imagesJSON, &o.Images); err != nil {
		return domain.ImageOverride{}, fmt.Errorf("unmarshal images: %w", err)
	}
	if err := json.Unmarshal(categoriesJSON, &o.Categories); err != nil {
		return domain.ImageOverride{}, fmt.Errorf("unmarshal categories: %w", err)
	}
	if sourceCatalog.Valid {
		parsed, convErr := uuid.FromBytes(sourceCatalog.Bytes[:])
		if convErr != nil {
			return domain.ImageOverride{}, fmt.Errorf("invalid source catalog id: %w", convErr)
		}
		o.SourceCatalogID = &parsed
	}
	if sourceKey.Valid {
		o.SourceProductKey = sourceKey.String
	}
	if len(newProductJSON) > 0 {
		var directive domain.NewProductDirective
		if err := json.Unmarshal(newProductJSON, &directive); err != nil {
			return domain.ImageOverride{}, fmt.Errorf("unmarshal new product directive: %w", err)
		}
		o.NewProduct = &directive
	}
	return o, nil
}
