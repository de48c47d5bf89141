package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/igad-hub/hubwriter/internal/api"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/service"
)

type RetrievalRunner interface {
	Retrieve(ctx context.Context, query string, maxResults int, scoreThreshold float64) ([]*domain.RetrievedChunk, error)
}

type TopicIngester interface {
	IngestTopic(ctx context.Context, input service.IngestInput) (int, error)
}

type RetrievalHandler struct {
	svc      RetrievalRunner
	ingester TopicIngester
}

func NewRetrievalHandler(svc RetrievalRunner, ingester TopicIngester) *RetrievalHandler {
	return &RetrievalHandler{svc: svc, ingester: ingester}
}

type RetrieveRequest struct {
	Query          string  `json:"query"`
	MaxResults     int     `json:"max_results"`
	ScoreThreshold float64 `json:"score_threshold"`
}

type RetrievePlanRequest struct {
	Topics           []string `json:"topics"`
	Frequency        string   `json:"frequency"`
	Audience         string   `json:"audience"`
	Tone             string   `json:"tone"`
	GeographicFocus  string   `json:"geographic_focus"`
	LengthPreference string   `json:"length_preference"`
}

type RetrievePlanResponse struct {
	Query     string `json:"query"`
	DaysBack  int    `json:"days_back"`
	MaxChunks int    `json:"max_chunks"`
}

type IngestTopicRequest struct {
	TopicID   string            `json:"topic_id"`
	Content   string            `json:"content"`
	SourceURL string            `json:"source_url"`
	Metadata  map[string]string `json:"metadata"`
}

func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chunks, err := h.svc.Retrieve(r.Context(), req.Query, req.MaxResults, req.ScoreThreshold)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, chunks)
}

// Plan is a side-effect-free endpoint: it reports the query string and sizing
// parameters a retrieval run would use for the given subscriber profile.
func (h *RetrievalHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req RetrievePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := domain.NewsletterConfig{
		Frequency:        domain.Frequency(req.Frequency),
		Audience:         domain.Audience(req.Audience),
		Tone:             domain.Tone(req.Tone),
		GeographicFocus:  req.GeographicFocus,
		LengthPreference: domain.LengthPreference(req.LengthPreference),
	}

	params := service.CalculateRetrievalParams(cfg)

	api.Success(w, http.StatusOK, RetrievePlanResponse{
		Query:     service.BuildQuery(req.Topics, cfg),
		DaysBack:  params.DaysBack,
		MaxChunks: params.MaxChunks,
	})
}

func (h *RetrievalHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.ingester.IngestTopic(r.Context(), service.IngestInput{
		TopicID:   req.TopicID,
		Content:   req.Content,
		SourceURL: req.SourceURL,
		Metadata:  req.Metadata,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, map[string]int{"chunks_indexed": count})
}
