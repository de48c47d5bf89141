package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockSemanticIndex struct {
	mock.Mock
}

func (m *MockSemanticIndex) Search(ctx context.Context, embedding []float32, maxResults int) ([]*domain.IndexCandidate, error) {
	args := m.Called(ctx, embedding, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IndexCandidate), args.Error(1)
}

func TestRetrievalService_Retrieve(t *testing.T) {
	embedding := new(MockEmbeddingClient)
	index := new(MockSemanticIndex)
	svc := NewRetrievalService(embedding, index)

	queryVec := []float32{0.1, 0.2}
	embedding.On("GenerateEmbedding", mock.Anything, "drought resilience").Return(queryVec, nil)
	index.On("Search", mock.Anything, queryVec, 5).Return([]*domain.IndexCandidate{
		{TopicID: "food_security", Content: "chunk a", Score: 0.9, SourceURL: "https://example.org/a"},
		{TopicID: "climate", Content: "chunk b", Score: 0.6},
		{TopicID: "climate", Content: "chunk c", Score: 0.2},
	}, nil)

	chunks, err := svc.Retrieve(context.Background(), "drought resilience", 5, 0.5)

	require.NoError(t, err)
	require.Len(t, chunks, 2, "candidates strictly below the threshold are dropped")
	assert.Equal(t, "chunk-000", chunks[0].ChunkID)
	assert.Equal(t, "chunk-001", chunks[1].ChunkID)
	assert.Equal(t, "food_security", chunks[0].TopicID)
	assert.Equal(t, 0.9, chunks[0].Score)
	assert.Equal(t, "https://example.org/a", chunks[0].SourceURL)
}

func TestRetrievalService_Retrieve_ThresholdIsInclusive(t *testing.T) {
	embedding := new(MockEmbeddingClient)
	index := new(MockSemanticIndex)
	svc := NewRetrievalService(embedding, index)

	embedding.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{0.1}, nil)
	index.On("Search", mock.Anything, mock.Anything, 10).Return([]*domain.IndexCandidate{
		{TopicID: "t", Content: "exactly at threshold", Score: 0.5},
	}, nil)

	chunks, err := svc.Retrieve(context.Background(), "q", 10, 0.5)

	require.NoError(t, err)
	assert.Len(t, chunks, 1, "a score equal to the threshold is kept")
}

func TestRetrievalService_Retrieve_EmptyQuery(t *testing.T) {
	svc := NewRetrievalService(new(MockEmbeddingClient), new(MockSemanticIndex))

	_, err := svc.Retrieve(context.Background(), "   ", 10, 0.5)

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestRetrievalService_Retrieve_InvalidThreshold(t *testing.T) {
	svc := NewRetrievalService(new(MockEmbeddingClient), new(MockSemanticIndex))

	for _, threshold := range []float64{-0.1, 1.1} {
		_, err := svc.Retrieve(context.Background(), "q", 10, threshold)
		assert.ErrorIs(t, err, domain.ErrInvalidScoreThreshold)
	}
}

func TestRetrievalService_Retrieve_DefaultMaxResults(t *testing.T) {
	embedding := new(MockEmbeddingClient)
	index := new(MockSemanticIndex)
	svc := NewRetrievalService(embedding, index)

	embedding.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{0.1}, nil)
	index.On("Search", mock.Anything, mock.Anything, 10).Return([]*domain.IndexCandidate{}, nil)

	chunks, err := svc.Retrieve(context.Background(), "q", 0, 0.5)

	require.NoError(t, err)
	assert.Empty(t, chunks)
	index.AssertCalled(t, "Search", mock.Anything, mock.Anything, 10)
}

func TestRetrievalService_Retrieve_EmbeddingFailure(t *testing.T) {
	embedding := new(MockEmbeddingClient)
	index := new(MockSemanticIndex)
	svc := NewRetrievalService(embedding, index)

	embedding.On("GenerateEmbedding", mock.Anything, "q").Return(nil, errors.New("model unavailable"))

	_, err := svc.Retrieve(context.Background(), "q", 10, 0.5)

	assert.True(t, IsDependencyError(err))
	index.AssertNotCalled(t, "Search")
}

func TestRetrievalService_Retrieve_IndexFailure(t *testing.T) {
	embedding := new(MockEmbeddingClient)
	index := new(MockSemanticIndex)
	svc := NewRetrievalService(embedding, index)

	embedding.On("GenerateEmbedding", mock.Anything, "q").Return([]float32{0.1}, nil)
	index.On("Search", mock.Anything, mock.Anything, 10).Return(nil, errors.New("index down"))

	_, err := svc.Retrieve(context.Background(), "q", 10, 0.5)

	assert.True(t, IsDependencyError(err))
}

func TestBuildQuery(t *testing.T) {
	cfg := domain.NewsletterConfig{
		Audience:        domain.AudiencePolicymakers,
		GeographicFocus: "Horn of Africa",
		Tone:            domain.ToneFormal,
	}

	query := BuildQuery([]string{"food_security", "climate_adaptation"}, cfg)

	assert.Contains(t, query, domain.TopicDisplayName("food_security"))
	assert.Contains(t, query, "Horn of Africa")

	// fixed order: topics, audience, geography, tone
	audienceIdx := strings.Index(query, domain.AudienceKeywords(domain.AudiencePolicymakers))
	geoIdx := strings.Index(query, "Horn of Africa")
	toneIdx := strings.Index(query, domain.ToneKeywords(domain.ToneFormal))
	require.GreaterOrEqual(t, audienceIdx, 0)
	assert.Less(t, audienceIdx, geoIdx)
	assert.Less(t, geoIdx, toneIdx)
}

func TestBuildQuery_UnknownTopicFallsBackToRawID(t *testing.T) {
	query := BuildQuery([]string{"obscure_topic"}, domain.NewsletterConfig{})

	assert.Equal(t, "obscure_topic", query)
}

func TestCalculateRetrievalParams(t *testing.T) {
	tests := []struct {
		name      string
		cfg       domain.NewsletterConfig
		daysBack  int
		maxChunks int
	}{
		{
			name:      "daily standard",
			cfg:       domain.NewsletterConfig{Frequency: domain.FrequencyDaily, LengthPreference: domain.LengthStandard},
			daysBack:  2,
			maxChunks: 15,
		},
		{
			name:      "weekly deep dive",
			cfg:       domain.NewsletterConfig{Frequency: domain.FrequencyWeekly, LengthPreference: domain.LengthDeepDive},
			daysBack:  14,
			maxChunks: 38,
		},
		{
			name:      "monthly quick read",
			cfg:       domain.NewsletterConfig{Frequency: domain.FrequencyMonthly, LengthPreference: domain.LengthQuickRead},
			daysBack:  45,
			maxChunks: 24,
		},
		{
			name:      "quarterly deep dive",
			cfg:       domain.NewsletterConfig{Frequency: domain.FrequencyQuarterly, LengthPreference: domain.LengthDeepDive},
			daysBack:  120,
			maxChunks: 75,
		},
		{
			name:      "unknown frequency falls back to weekly",
			cfg:       domain.NewsletterConfig{Frequency: "hourly", LengthPreference: domain.LengthStandard},
			daysBack:  14,
			maxChunks: 25,
		},
		{
			name:      "unknown length falls back to 1.0 multiplier",
			cfg:       domain.NewsletterConfig{Frequency: domain.FrequencyDaily, LengthPreference: "novel"},
			daysBack:  2,
			maxChunks: 15,
		},
		{
			name:      "zero values fall back entirely",
			cfg:       domain.NewsletterConfig{},
			daysBack:  14,
			maxChunks: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := CalculateRetrievalParams(tt.cfg)
			assert.Equal(t, tt.daysBack, params.DaysBack)
			assert.Equal(t, tt.maxChunks, params.MaxChunks)
		})
	}
}
