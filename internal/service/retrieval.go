package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SemanticIndex defines the interface for the ranked semantic search the
// retrieval client issues its single query against.
type SemanticIndex interface {
	Search(ctx context.Context, embedding []float32, maxResults int) ([]*domain.IndexCandidate, error)
}

// RetrievalParams are the derived sizing parameters for one retrieval run.
type RetrievalParams struct {
	DaysBack  int `json:"days_back"`
	MaxChunks int `json:"max_chunks"`
}

var baseChunksByFrequency = map[domain.Frequency]int{
	domain.FrequencyDaily:     15,
	domain.FrequencyWeekly:    25,
	domain.FrequencyMonthly:   40,
	domain.FrequencyQuarterly: 50,
}

var daysBackByFrequency = map[domain.Frequency]int{
	domain.FrequencyDaily:     2,
	domain.FrequencyWeekly:    14,
	domain.FrequencyMonthly:   45,
	domain.FrequencyQuarterly: 120,
}

var lengthMultipliers = map[domain.LengthPreference]float64{
	domain.LengthQuickRead: 0.6,
	domain.LengthStandard:  1.0,
	domain.LengthDeepDive:  1.5,
}

// RetrievalService queries the semantic index and shapes results into ranked
// content chunks.
type RetrievalService struct {
	embedding EmbeddingClient
	index     SemanticIndex
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(embedding EmbeddingClient, index SemanticIndex) *RetrievalService {
	return &RetrievalService{
		embedding: embedding,
		index:     index,
	}
}

// Retrieve issues one semantic query, drops candidates scoring strictly below
// the threshold, and preserves the index's descending-score ordering. Chunk
// ids are synthesized from result positions and are only stable within this
// result set.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, maxResults int, scoreThreshold float64) ([]*domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if scoreThreshold < 0 || scoreThreshold > 1 {
		return nil, domain.ErrInvalidScoreThreshold
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "embedding model call failed", err)
	}

	candidates, err := s.index.Search(ctx, embedding, maxResults)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "semantic index query failed", err)
	}

	chunks := make([]*domain.RetrievedChunk, 0, len(candidates))
	for i, c := range candidates {
		if c.Score < scoreThreshold {
			continue
		}
		chunks = append(chunks, &domain.RetrievedChunk{
			ChunkID:        fmt.Sprintf("chunk-%03d", i),
			TopicID:        c.TopicID,
			Content:        c.Content,
			Score:          c.Score,
			SourceURL:      c.SourceURL,
			SourceMetadata: c.Metadata,
		})
	}
	return chunks, nil
}

// BuildQuery concatenates topic display names, audience keywords, the
// geographic focus phrase, and tone keywords into one whitespace-joined
// query string. The order is fixed: topics, audience, geography, tone.
func BuildQuery(topics []string, cfg domain.NewsletterConfig) string {
	parts := make([]string, 0, len(topics)+3)

	for _, topic := range topics {
		parts = append(parts, domain.TopicDisplayName(topic))
	}

	if keywords := domain.AudienceKeywords(cfg.Audience); keywords != "" {
		parts = append(parts, keywords)
	}

	if cfg.GeographicFocus != "" {
		parts = append(parts, cfg.GeographicFocus)
	}

	if keywords := domain.ToneKeywords(cfg.Tone); keywords != "" {
		parts = append(parts, keywords)
	}

	return strings.Join(parts, " ")
}

// CalculateRetrievalParams derives the lookback window and chunk budget from
// a subscriber's frequency and length preference. Unknown values fall back
// to weekly and the 1.0 multiplier.
func CalculateRetrievalParams(cfg domain.NewsletterConfig) RetrievalParams {
	frequency := cfg.Frequency
	if _, ok := baseChunksByFrequency[frequency]; !ok {
		frequency = domain.FrequencyWeekly
	}

	multiplier, ok := lengthMultipliers[cfg.LengthPreference]
	if !ok {
		multiplier = 1.0
	}

	return RetrievalParams{
		DaysBack:  daysBackByFrequency[frequency],
		MaxChunks: int(math.Round(float64(baseChunksByFrequency[frequency]) * multiplier)),
	}
}
