package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"catalogapi/internal/domain"
	"catalogapi/internal/repository"

	"github.com/google/uuid"
)

// Handler exposes catalog upload and lifecycle endpoints.
type Handler struct {
	service  *Service
	catalogs repository.CatalogRepository
}

// NewHTTPHandler wraps the service with the /catalogs endpoints.
func NewHTTPHandler(service *Service, catalogs repository.CatalogRepository) http.Handler {
	return &Handler{service: service, catalogs: catalogs}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/upload"):
		h.handleUpload(w, r)
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/mapping"):
		h.handleUpdateMapping(w, r)
	case r.Method == http.MethodGet && tailID(r.URL.Path) != "":
		h.handleGet(w, r)
	case r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.Method == http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	rowMode := domain.RowMode(strings.ToUpper(strings.TrimSpace(r.FormValue("rowMode"))))

	var columns []domain.ColumnMapping
	if raw := strings.TrimSpace(r.FormValue("columns")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &columns); err != nil {
			http.Error(w, fmt.Sprintf("invalid columns: %v", err), http.StatusBadRequest)
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("read file: %v", err), http.StatusBadRequest)
		return
	}

	summary, err := h.service.Ingest(r.Context(), Request{
		Name:     name,
		RowMode:  rowMode,
		FileName: header.Filename,
		Columns:  columns,
		Data:     bytes.NewReader(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *Handler) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload struct {
		CatalogID string                 `json:"catalogId"`
		Columns   []domain.ColumnMapping `json:"columns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(payload.CatalogID))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}
	catalog, err := h.service.UpdateMapping(r.Context(), id, payload.Columns)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(tailID(r.URL.Path))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}
	catalog, err := h.catalogs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	catalogs, err := h.catalogs.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// Row payloads can be large; the listing returns metadata only.
	type listItem struct {
		ID       uuid.UUID              `json:"id"`
		Name     string                 `json:"name"`
		RowMode  domain.RowMode         `json:"rowMode"`
		Columns  []domain.ColumnMapping `json:"columns"`
		RowCount int                    `json:"rowCount"`
	}
	items := make([]listItem, 0, len(catalogs))
	for _, c := range catalogs {
		items = append(items, listItem{
			ID:       c.ID,
			Name:     c.Name,
			RowMode:  c.RowMode,
			Columns:  c.Columns,
			RowCount: len(c.DataRows()),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	raw := tailID(r.URL.Path)
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("catalogId"))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}
	if err := h.catalogs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tailID extracts a trailing uuid path segment, if any.
func tailID(path string) string {
	path = strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return ""
	}
	segment := path[idx+1:]
	if _, err := uuid.Parse(segment); err != nil {
		return ""
	}
	return segment
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
