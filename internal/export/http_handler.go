package export

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalogapi/internal/repository"

	"github.com/google/uuid"
)

// Handler streams catalog exports as file downloads.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET download endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	catalogID, err := uuid.Parse(strings.TrimSpace(query.Get("catalogId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}
	req := Request{
		CatalogID:   catalogID,
		Format:      query.Get("format"),
		UpdatedOnly: query.Get("updatedOnly") == "true",
	}

	// Render fully before touching the response so errors can still
	// produce a clean status code.
	var buf bytes.Buffer
	result, err := h.service.Write(r.Context(), req, &buf)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			http.Error(w, "catalog not found", http.StatusNotFound)
		case errors.Is(err, ErrUnsupportedFormat):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
