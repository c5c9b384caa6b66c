package override

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalogapi/internal/domain"
	"catalogapi/internal/repository"

	"github.com/google/uuid"
)

// Handler exposes override saves and product deletes.
type Handler struct {
	store *Store
}

// NewHTTPHandler wraps the store with the /overrides endpoints.
func NewHTTPHandler(store *Store) http.Handler {
	return &Handler{store: store}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/images"):
		h.handleSaveImages(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/text"):
		h.handleSaveText(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/generations"):
		h.handleRecordGeneration(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/generations"):
		h.handleListGenerations(w, r)
	case r.Method == http.MethodDelete:
		h.handleDeleteProduct(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleSaveImages(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req SaveImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.store.SaveImages(r.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "catalog not found", http.StatusNotFound)
			return
		}
		// Composer validation failures and bad identifiers are client errors.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSaveText(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload struct {
		CatalogID  uuid.UUID `json:"catalogId"`
		ProductKey string    `json:"productKey"`
		FieldRole  string    `json:"fieldRole"`
		Value      string    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}

	saved, err := h.store.SaveText(r.Context(), payload.CatalogID, payload.ProductKey, payload.FieldRole, payload.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleRecordGeneration(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var result domain.GenerationResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}

	saved, err := h.store.RecordGeneration(r.Context(), result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	catalogID, err := uuid.Parse(strings.TrimSpace(values.Get("catalogId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}
	productKey := strings.TrimSpace(values.Get("productKey"))
	if productKey == "" {
		http.Error(w, "productKey is required", http.StatusBadRequest)
		return
	}

	results, err := h.store.ListGenerations(r.Context(), catalogID, productKey)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []domain.GenerationResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	catalogID, err := uuid.Parse(strings.TrimSpace(values.Get("catalogId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid catalog id: %v", err), http.StatusBadRequest)
		return
	}
	productKey := strings.TrimSpace(values.Get("productKey"))
	if productKey == "" {
		http.Error(w, "productKey is required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteProduct(r.Context(), catalogID, productKey); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
