package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"catalogapi/internal/repository"

	"github.com/google/uuid"
)

// Handler exposes the query engine over HTTP, loading the override overlay
// from the repositories on every request.
type Handler struct {
	catalogs    repository.CatalogRepository
	overrides   repository.OverrideRepository
	generations repository.GenerationRepository
}

// NewHTTPHandler wraps the engine with a GET endpoint.
func NewHTTPHandler(
	catalogs repository.CatalogRepository,
	overrides repository.OverrideRepository,
	generations repository.GenerationRepository,
) http.Handler {
	return &Handler{catalogs: catalogs, overrides: overrides, generations: generations}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	values := r.URL.Query()
	catalogID, err := uuid.Parse(strings.TrimSpace(values.Get("catalogId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}

	params := Params{
		Search:      values.Get("search"),
		Sort:        values.Get("sort"),
		UpdatedOnly: values.Get("updatedOnly") == "true",
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "page must be an integer", http.StatusBadRequest)
			return
		}
		params.Page = parsed
	}
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "pageSize must be an integer", http.StatusBadRequest)
			return
		}
		params.PageSize = parsed
	}

	ctx := r.Context()
	catalog, err := h.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	overlay := Overlay{}
	if overlay.Images, err = h.overrides.ListImages(ctx, catalogID); err != nil {
		http.Error(w, fmt.Sprintf("load image overrides: %v", err), http.StatusInternalServerError)
		return
	}
	if overlay.Texts, err = h.overrides.ListTexts(ctx, catalogID); err != nil {
		http.Error(w, fmt.Sprintf("load text overrides: %v", err), http.StatusInternalServerError)
		return
	}
	if overlay.Generated, err = h.generations.ListKeys(ctx, catalogID); err != nil {
		http.Error(w, fmt.Sprintf("load generation keys: %v", err), http.StatusInternalServerError)
		return
	}

	result, err := Run(catalog, params, overlay)
	if err != nil {
		if errors.Is(err, ErrMissingIdentityColumn) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
