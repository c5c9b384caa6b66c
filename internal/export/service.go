// Package export writes a catalog back out as a spreadsheet, folding the
// stored overrides into the mapped columns. The predecessor tooling shelled
// out to a script for legacy .xls output; this writer produces .xlsx and .csv
// directly.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"catalogapi/internal/aggregate"
	"catalogapi/internal/domain"
	"catalogapi/internal/override"
	"catalogapi/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Supported output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ErrUnsupportedFormat is returned for formats other than xlsx and csv.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Service renders catalogs with their overrides applied.
type Service struct {
	catalogs    repository.CatalogRepository
	overrides   repository.OverrideRepository
	generations repository.GenerationRepository

	exportDir string
	logger    *zap.Logger
}

// Option customizes the export service.
type Option func(*Service)

// WithExportDirectory sets where promoted export files land.
func WithExportDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.exportDir = filepath.Clean(dir)
		}
	}
}

// NewService creates the export service.
func NewService(
	catalogs repository.CatalogRepository,
	overrides repository.OverrideRepository,
	generations repository.GenerationRepository,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{
		catalogs:    catalogs,
		overrides:   overrides,
		generations: generations,
		exportDir:   filepath.Join(os.TempDir(), "catalog-exports"),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Request selects what to export.
type Request struct {
	CatalogID   uuid.UUID
	Format      string
	UpdatedOnly bool
}

// Result describes the rendered file.
type Result struct {
	FileName    string
	ContentType string
	RowCount    int
}

// Write streams the export to w.
func (s *Service) Write(ctx context.Context, req Request, w io.Writer) (Result, error) {
	format, contentType, err := resolveFormat(req.Format)
	if err != nil {
		return Result{}, err
	}
	catalog, sheet, err := s.buildSheet(ctx, req)
	if err != nil {
		return Result{}, err
	}

	switch format {
	case FormatCSV:
		err = writeCSV(w, sheet)
	case FormatXLSX:
		err = writeXLSX(w, sheet)
	}
	if err != nil {
		return Result{}, err
	}

	rowCount := len(sheet) - 1
	s.logger.Info("catalog exported",
		zap.String("catalog", catalog.ID.String()),
		zap.String("format", format),
		zap.Bool("updatedOnly", req.UpdatedOnly),
		zap.Int("rows", rowCount),
	)
	return Result{
		FileName:    fmt.Sprintf("%s.%s", sanitizeFileComponent(catalog.Name), format),
		ContentType: contentType,
		RowCount:    rowCount,
	}, nil
}

// ExportToFile writes the export to a temp file and promotes it into the
// export directory only on success.
func (s *Service) ExportToFile(ctx context.Context, req Request) (string, error) {
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export directory: %w", err)
	}
	tempFile, err := os.CreateTemp(s.exportDir, "export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	result, err := s.Write(ctx, req, tempFile)
	if err != nil {
		return "", err
	}
	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("sync export file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	ext := filepath.Ext(result.FileName)
	base := strings.TrimSuffix(result.FileName, ext)
	finalPath := filepath.Join(s.exportDir, fmt.Sprintf("%s-%d%s", base, time.Now().Unix(), ext))
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", fmt.Errorf("promote export file: %w", err)
	}
	cleanup = false
	return finalPath, nil
}

// buildSheet renders the full output grid: header row plus one row per
// product (PER_PRODUCT) or per visible image (PER_IMAGE), with text overrides
// and composed image lists folded back into the mapped columns.
func (s *Service) buildSheet(ctx context.Context, req Request) (domain.Catalog, [][]string, error) {
	if req.CatalogID == uuid.Nil {
		return domain.Catalog{}, nil, errors.New("catalog id is required")
	}
	catalog, err := s.catalogs.GetByID(ctx, req.CatalogID)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("load catalog: %w", err)
	}
	records, err := aggregate.CatalogRecords(catalog)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("compute records: %w", err)
	}
	images, err := s.overrides.ListImages(ctx, catalog.ID)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("load image overrides: %w", err)
	}
	texts, err := s.overrides.ListTexts(ctx, catalog.ID)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("load text overrides: %w", err)
	}
	generated, err := s.generations.ListKeys(ctx, catalog.ID)
	if err != nil {
		return domain.Catalog{}, nil, fmt.Errorf("load generation keys: %w", err)
	}

	records = appendVirtualProducts(records, images)

	header := make([]string, len(catalog.Columns))
	for i, col := range catalog.Columns {
		header[i] = col.Name
	}
	sheet := [][]string{header}

	for _, record := range records {
		imageOverride, hasImages := override.FindImageOverride(images, record, records)
		textSet := override.FindTextOverrides(texts, record, records)
		updated := hasImages || len(textSet) > 0 || generated[record.Key]
		if req.UpdatedOnly && !updated {
			continue
		}

		list := override.RowImageList(catalog, record)
		if hasImages {
			list = imageOverride.List()
		}

		if catalog.RowMode == domain.RowModePerImage {
			sheet = append(sheet, s.perImageRows(catalog, record, textSet, list)...)
		} else {
			sheet = append(sheet, s.perProductRow(catalog, record, textSet, list))
		}
	}
	return catalog, sheet, nil
}

// perProductRow renders one product as one row. Each image column receives
// the visible entries of its own category, rejoined with the column
// separator; entries in undeclared categories fall into the first image
// column rather than being dropped.
func (s *Service) perProductRow(catalog domain.Catalog, record domain.ProductRecord, texts map[string]domain.TextOverride, list domain.ImageList) []string {
	declared := map[string]bool{}
	firstImageColumn := ""
	for _, col := range catalog.Columns {
		if col.Mapped() && domain.IsImageRole(col.Role) {
			declared[domain.CategoryToken(col.Name)] = true
			if firstImageColumn == "" {
				firstImageColumn = domain.CategoryToken(col.Name)
			}
		}
	}

	byCategory := map[string][]string{}
	for _, i := range list.DistinctVisibleIndices() {
		category := list.Categories[i]
		if !declared[category] {
			category = firstImageColumn
		}
		byCategory[category] = append(byCategory[category], strings.TrimSpace(list.Images[i]))
	}

	row := make([]string, len(catalog.Columns))
	for i, col := range catalog.Columns {
		switch {
		case col.Mapped() && domain.IsImageRole(col.Role):
			row[i] = strings.Join(byCategory[domain.CategoryToken(col.Name)], col.EffectiveSeparator())
		case col.Mapped():
			row[i] = fieldValue(record, texts, col)
		default:
			row[i] = rawCell(catalog, record, i)
		}
	}
	return row
}

// perImageRows renders one row per visible image, repeating the scalar
// fields; the images land in the first image column. A product with no
// visible images still gets one row so its fields survive the round trip.
func (s *Service) perImageRows(catalog domain.Catalog, record domain.ProductRecord, texts map[string]domain.TextOverride, list domain.ImageList) [][]string {
	imageColumn := -1
	for i, col := range catalog.Columns {
		if col.Mapped() && domain.IsImageRole(col.Role) {
			imageColumn = i
			break
		}
	}

	base := make([]string, len(catalog.Columns))
	for i, col := range catalog.Columns {
		switch {
		case i == imageColumn:
		case col.Mapped():
			base[i] = fieldValue(record, texts, col)
		default:
			base[i] = rawCell(catalog, record, i)
		}
	}

	visible := list.DistinctVisibleIndices()
	if len(visible) == 0 || imageColumn == -1 {
		return [][]string{base}
	}
	rows := make([][]string, 0, len(visible))
	for _, idx := range visible {
		row := append([]string(nil), base...)
		row[imageColumn] = strings.TrimSpace(list.Images[idx])
		rows = append(rows, row)
	}
	return rows
}

// fieldValue resolves a mapped scalar cell: text override first, then the
// normalized record value.
func fieldValue(record domain.ProductRecord, texts map[string]domain.TextOverride, col domain.ColumnMapping) string {
	if o, ok := texts[col.Role]; ok {
		return o.Value
	}
	return record.Fields.Get(col.Role)
}

// rawCell passes an unmapped column through from the original row so data
// the mapping ignores is not lost on re-export.
func rawCell(catalog domain.Catalog, record domain.ProductRecord, col int) string {
	if len(record.RowIndices) == 0 {
		return "" // virtual product, no source row
	}
	rowIndex := record.RowIndices[0] - 1 // 1-based from the header row
	if rowIndex < 0 || rowIndex >= len(catalog.Rows) {
		return ""
	}
	row := catalog.Rows[rowIndex]
	if col >= len(row) {
		return ""
	}
	return row[col]
}

// appendVirtualProducts adds records for new-product overrides that have no
// backing rows, so they appear in exports too.
func appendVirtualProducts(records []domain.ProductRecord, images map[string]domain.ImageOverride) []domain.ProductRecord {
	existing := make(map[string]bool, len(records))
	for _, r := range records {
		existing[r.Key] = true
	}
	var keys []string
	for key, o := range images {
		if o.NewProduct != nil && !existing[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys) // deterministic across map iteration
	for _, key := range keys {
		o := images[key]
		fields := domain.NewFieldRecord(0)
		fields.Fields[domain.RoleSKU] = o.NewProduct.SKU
		if fields.Fields[domain.RoleSKU] == "" {
			fields.Fields[domain.RoleSKU] = key
		}
		if o.NewProduct.ProductID != "" {
			fields.Fields[domain.RoleProductID] = o.NewProduct.ProductID
		}
		if o.NewProduct.Title != "" {
			fields.Fields[domain.RoleProductTitle] = o.NewProduct.Title
		}
		records = append(records, domain.ProductRecord{Key: key, Fields: fields})
	}
	return records
}

func resolveFormat(format string) (string, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatXLSX:
		return FormatXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case FormatCSV:
		return FormatCSV, "text/csv", nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeCSV(w io.Writer, sheet [][]string) error {
	csvWriter := csv.NewWriter(w)
	for _, row := range sheet {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, sheet [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	for i, row := range sheet {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolve cell: %w", err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-' || r == '_':
			builder.WriteRune(r)
		case r == ' ':
			builder.WriteRune('-')
		default:
			builder.WriteRune('-')
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return "export"
	}
	return result
}
