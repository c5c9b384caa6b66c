package repository

import (
	"context"
	"fmt"

	"catalogapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type generationRepository struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository wires storage for AI generation results.
func NewGenerationRepository(pool *pgxpool.Pool) GenerationRepository {
	return &generationRepository{pool: pool}
}

func (r *generationRepository) Record(ctx context.Context, result domain.GenerationResult) (domain.GenerationResult, error) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO generation_results (id, catalog_id, product_key, image_url, prompt)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, catalog_id, product_key, image_url, prompt, created_at`,
		result.ID, result.CatalogID, result.ProductKey, result.ImageURL, result.Prompt,
	)
	var saved domain.GenerationResult
	if err := row.Scan(&saved.ID, &saved.CatalogID, &saved.ProductKey, &saved.ImageURL, &saved.Prompt, &saved.CreatedAt); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("insert generation result: %w", err)
	}
	return saved, nil
}

func (r *generationRepository) ListKeys(ctx context.Context, catalogID uuid.UUID) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT product_key FROM generation_results WHERE catalog_id = $1`, catalogID)
	if err != nil {
		return nil, fmt.Errorf("list generated keys: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan generated key: %w", err)
		}
		out[key] = true
	}
	return out, rows.Err()
}

func (r *generationRepository) ListForProduct(ctx context.Context, catalogID uuid.UUID, productKey string) ([]domain.GenerationResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, catalog_id, product_key, image_url, prompt, created_at
		FROM generation_results
		WHERE catalog_id = $1 AND product_key = $2
		ORDER BY created_at`, catalogID, productKey)
	if err != nil {
		return nil, fmt.Errorf("list generation results: %w", err)
	}
	defer rows.Close()

	var results []domain.GenerationResult
	for rows.Next() {
		var result domain.GenerationResult
		if err := rows.Scan(&result.ID, &result.CatalogID, &result.ProductKey, &result.ImageURL, &result.Prompt, &result.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (r *generationRepository) DeleteForProduct(ctx context.Context, catalogID uuid.UUID, productKey string) error {
	if _, err := r.pool.Exec(ctx, `
		DELETE FROM generation_results WHERE catalog_id = $1 AND product_key = $2`,
		catalogID, productKey); err != nil {
		return fmt.Errorf("delete generation results: %w", err)
	}
	return nil
}
