package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/igad-hub/hubwriter/internal/api"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/go-chi/chi/v5"
)

type VectorStoreService interface {
	Store(ctx context.Context, ownerID, documentType string, embeddings [][]float32, textChunks []string, metadata map[string]string) (string, error)
	Query(ctx context.Context, queryText, ownerID string, topK int, similarityThreshold float64) ([]*domain.VectorMatch, error)
	BuildContext(ctx context.Context, queryText, ownerID string, maxContextLength int) (string, error)
	DeleteAll(ctx context.Context, ownerID string) (bool, error)
	Statistics(ctx context.Context, ownerID string) (*domain.VectorStats, error)
}

type VectorHandler struct {
	svc VectorStoreService
}

func NewVectorHandler(svc VectorStoreService) *VectorHandler {
	return &VectorHandler{svc: svc}
}

type StoreVectorsRequest struct {
	DocumentType string            `json:"document_type"`
	Embeddings   [][]float32       `json:"embeddings"`
	TextChunks   []string          `json:"text_chunks"`
	Metadata     map[string]string `json:"metadata"`
}

type QueryVectorsRequest struct {
	Query               string  `json:"query"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type BuildContextRequest struct {
	Query            string `json:"query"`
	MaxContextLength int    `json:"max_context_length"`
}

func (h *VectorHandler) Store(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	var req StoreVectorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vectorID, err := h.svc.Store(r.Context(), ownerID, req.DocumentType, req.Embeddings, req.TextChunks, req.Metadata)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, map[string]string{"vector_id": vectorID})
}

func (h *VectorHandler) Query(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	var req QueryVectorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	matches, err := h.svc.Query(r.Context(), req.Query, ownerID, req.TopK, req.SimilarityThreshold)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, matches)
}

func (h *VectorHandler) BuildContext(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	var req BuildContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contextText, err := h.svc.BuildContext(r.Context(), req.Query, ownerID, req.MaxContextLength)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"context": contextText})
}

func (h *VectorHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	deleted, err := h.svc.DeleteAll(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *VectorHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")

	stats, err := h.svc.Statistics(r.Context(), ownerID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}
