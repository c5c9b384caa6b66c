// Package ingestion parses uploaded spreadsheets into catalogs. Only the raw
// 2D string grid and the column mapping are persisted; normalization and
// aggregation are recomputed from them on every read.
package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"catalogapi/internal/domain"
	"catalogapi/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Service ingests tabular uploads into catalogs.
type Service struct {
	catalogs repository.CatalogRepository
	logger   *zap.Logger
}

// NewService creates a new ingestion service.
func NewService(catalogs repository.CatalogRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalogs: catalogs, logger: logger}
}

// Request describes one upload.
type Request struct {
	Name     string
	RowMode  domain.RowMode
	FileName string
	// Columns optionally carries an explicit mapping; when empty, roles are
	// guessed from the header names and can be corrected later.
	Columns []domain.ColumnMapping
	Data    io.Reader
}

// Summary reports the created catalog back to the client.
type Summary struct {
	CatalogID uuid.UUID              `json:"catalogId"`
	Name      string                 `json:"name"`
	RowMode   domain.RowMode         `json:"rowMode"`
	Columns   []domain.ColumnMapping `json:"columns"`
	RowCount  int                    `json:"rowCount"`
}

// Ingest parses the uploaded file and persists it as a new catalog.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Summary{}, errors.New("catalog name is required")
	}
	if req.Data == nil {
		return Summary{}, errors.New("data reader is required")
	}
	rowMode := req.RowMode
	if rowMode == "" {
		rowMode = domain.RowModePerProduct
	}
	if rowMode != domain.RowModePerProduct && rowMode != domain.RowModePerImage {
		return Summary{}, fmt.Errorf("unknown row mode %q", rowMode)
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("read upload: %w", err)
	}
	if len(payload) == 0 {
		return Summary{}, errors.New("file is empty")
	}

	rows, err := parseTable(req.FileName, payload)
	if err != nil {
		return Summary{}, err
	}
	if len(rows) == 0 {
		return Summary{}, errors.New("no header row detected")
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = GuessColumnMappings(rows[0])
	}
	if err := validateMapping(rows[0], columns); err != nil {
		return Summary{}, err
	}

	catalog := domain.NewCatalog(strings.TrimSpace(req.Name), rowMode, columns, rows)
	created, err := s.catalogs.Create(ctx, catalog)
	if err != nil {
		return Summary{}, fmt.Errorf("persist catalog: %w", err)
	}

	s.logger.Info("catalog ingested",
		zap.String("catalog", created.ID.String()),
		zap.String("name", created.Name),
		zap.String("rowMode", string(created.RowMode)),
		zap.Int("rows", len(created.DataRows())),
	)

	return Summary{
		CatalogID: created.ID,
		Name:      created.Name,
		RowMode:   created.RowMode,
		Columns:   created.Columns,
		RowCount:  len(created.DataRows()),
	}, nil
}

// UpdateMapping replaces a catalog's column mapping after validating it
// against the stored header row.
func (s *Service) UpdateMapping(ctx context.Context, id uuid.UUID, columns []domain.ColumnMapping) (domain.Catalog, error) {
	if id == uuid.Nil {
		return domain.Catalog{}, errors.New("catalog id is required")
	}
	catalog, err := s.catalogs.GetByID(ctx, id)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog.Rows) == 0 {
		return domain.Catalog{}, errors.New("catalog has no header row")
	}
	if err := validateMapping(catalog.Rows[0], columns); err != nil {
		return domain.Catalog{}, err
	}
	updated, err := s.catalogs.UpdateColumnMapping(ctx, id, columns)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("persist mapping: %w", err)
	}
	return updated, nil
}

func parseTable(fileName string, payload []byte) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return normalizeGrid(records)
}

func parseExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows from xlsx: %w", err)
	}
	return normalizeGrid(rows)
}

// normalizeGrid yields the stored grid: header at index 0, every row padded
// to the header width, fully empty rows dropped.
func normalizeGrid(records [][]string) ([][]string, error) {
	var header []string
	var rows [][]string
	for _, row := range records {
		if rowEmpty(row) {
			continue
		}
		if header == nil {
			header = sanitizeHeader(row)
			rows = append(rows, header)
			continue
		}
		rows = append(rows, padRow(row, len(header)))
	}
	if header == nil {
		return nil, errors.New("header row could not be detected")
	}
	return rows, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sanitizeHeader trims header cells and disambiguates blanks and duplicates.
// Names stay human-readable: they double as category display names.
func sanitizeHeader(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)
	for idx, value := range raw {
		name := strings.TrimSpace(value)
		if name == "" {
			name = fmt.Sprintf("Column %d", idx+1)
		}
		base := name
		if count := seen[base]; count > 0 {
			name = fmt.Sprintf("%s %d", base, count+1)
		}
		seen[base]++
		headers[idx] = name
	}
	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}

// headerRoleGuesses maps normalized header names to semantic roles.
var headerRoleGuesses = map[string]string{
	"sku":          domain.RoleSKU,
	"itemsku":      domain.RoleSKU,
	"productid":    domain.RoleProductID,
	"id":           domain.RoleProductID,
	"handle":       domain.RoleProductID,
	"title":        domain.RoleProductTitle,
	"producttitle": domain.RoleProductTitle,
	"productname":  domain.RoleProductTitle,
	"name":         domain.RoleProductTitle,
	"category":     domain.RoleCategory,
	"producttype":  domain.RoleCategory,
	"price":        domain.RolePrice,
	"vendor":       domain.RoleVendorName,
	"vendorname":   domain.RoleVendorName,
	"brand":        domain.RoleVendorName,
	"tags":         domain.RoleTags,
	"description":  domain.RoleDescription,
	"body":         domain.RoleDescription,
	"bodyhtml":     domain.RoleDescription,
}

// GuessColumnMappings proposes a mapping from header names alone. Image
// columns get sequential image roles; tags default to multi-value. Anything
// unrecognized is left unmapped for the user to assign.
func GuessColumnMappings(header []string) []domain.ColumnMapping {
	columns := make([]domain.ColumnMapping, len(header))
	assigned := map[string]bool{}
	imageCount := 0
	for i, name := range header {
		columns[i] = domain.ColumnMapping{Name: name}
		normalized := normalizeHeaderName(name)

		if strings.Contains(normalized, "image") || strings.Contains(normalized, "img") {
			imageCount++
			columns[i].Role = fmt.Sprintf("image_%d", imageCount)
			continue
		}
		role, ok := headerRoleGuesses[normalized]
		if !ok || assigned[role] {
			continue
		}
		assigned[role] = true
		columns[i].Role = role
		if role == domain.RoleTags {
			columns[i].MultiValue = true
		}
	}
	return columns
}

func normalizeHeaderName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validateMapping checks that mapped columns exist in the header and that no
// standard scalar role is claimed twice.
func validateMapping(header []string, columns []domain.ColumnMapping) error {
	known := make(map[string]bool, len(header))
	for _, name := range header {
		known[name] = true
	}
	claimed := map[string]string{}
	for _, col := range columns {
		if !known[col.Name] {
			return fmt.Errorf("mapped column %q not found in header", col.Name)
		}
		if !col.Mapped() {
			continue
		}
		if domain.StandardRoles[col.Role] {
			if prev, ok := claimed[col.Role]; ok {
				return fmt.Errorf("role %s mapped to both %q and %q", col.Role, prev, col.Name)
			}
			claimed[col.Role] = col.Name
		}
	}
	return nil
}
