package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalogapi/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository wires a repository for uploaded catalogs.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) Create(ctx context.Context, catalog domain.Catalog) (domain.Catalog, error) {
	if catalog.ID == uuid.Nil {
		catalog.ID = uuid.New()
	}

	columnsJSON, err := json.Marshal(catalog.Columns)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("marshal column mapping: %w", err)
	}
	rowsJSON, err := json.Marshal(catalog.Rows)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("marshal raw rows: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO catalogs (id, name, row_mode, columns, rows)
		VALUES ($1, $2, $3, $4, $5)`,
		catalog.ID, catalog.Name, string(catalog.RowMode), columnsJSON, rowsJSON,
	)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("insert catalog: %w", err)
	}

	return r.GetByID(ctx, catalog.ID)
}

func (r *catalogRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Catalog, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, row_mode, columns, rows, created_at, updated_at
		FROM catalogs WHERE id = $1`, id)
	return scanCatalog(row)
}

func (r *catalogRepository) List(ctx context.Context) ([]domain.Catalog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, row_mode, columns, rows, created_at, updated_at
		FROM catalogs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	var catalogs []domain.Catalog
	for rows.Next() {
		catalog, err := scanCatalog(rows)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, catalog)
	}
	return catalogs, rows.Err()
}

func (r *catalogRepository) UpdateColumnMapping(ctx context.Context, id uuid.UUID, columns []domain.ColumnMapping) (domain.Catalog, error) {
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("marshal column mapping: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE catalogs SET columns = $2, updated_at = now() WHERE id = $1`,
		id, columnsJSON,
	)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("update column mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Catalog{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *catalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete catalog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCatalog(row pgx.Row) (domain.Catalog, error) {
	var (
		catalog     domain.Catalog
		rowMode     string
		columnsJSON []byte
		rowsJSON    []byte
	)
	err := row.Scan(&catalog.ID, &catalog.Name, &rowMode, &columnsJSON, &rowsJSON, &catalog.CreatedAt, &catalog.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Catalog{}, ErrNotFound
		}
		return domain.Catalog{}, fmt.Errorf("scan catalog: %w", err)
	}
	catalog.RowMode = domain.RowMode(rowMode)
	if err := json.Unmarshal(columnsJSON, &catalog.Columns); err != nil {
		return domain.Catalog{}, fmt.Errorf("unmarshal column mapping: %w", err)
	}
	if err := json.Unmarshal(rowsJSON, &catalog.Rows); err != nil {
		return domain.Catalog{}, fmt.Errorf("unmarshal raw rows: %w", err)
	}
	return catalog, nil
}
