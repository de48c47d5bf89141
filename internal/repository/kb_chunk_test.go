//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embeddingDim = 1536

// axisEmbedding builds a unit vector along the given axis so cosine distances
// between test chunks are exact.
func axisEmbedding(axis int) []float32 {
	v := make([]float32, embeddingDim)
	v[axis] = 1.0
	return v
}

func TestKBChunkRepository_ReplaceTopic(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewKBChunkRepository(pool)
	topicID := uuid.NewString()

	chunks := []domain.KBChunk{
		{TopicID: topicID, ChunkIndex: 0, Content: "first chunk", SourceURL: "https://example.org/report", Metadata: map[string]string{"lang": "en"}, Embedding: axisEmbedding(0)},
		{TopicID: topicID, ChunkIndex: 1, Content: "second chunk", Embedding: axisEmbedding(1)},
	}
	require.NoError(t, repo.ReplaceTopic(ctx, topicID, chunks))

	candidates, err := repo.Search(ctx, axisEmbedding(0), 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "first chunk", candidates[0].Content)
	assert.Equal(t, "https://example.org/report", candidates[0].SourceURL)
	assert.Equal(t, map[string]string{"lang": "en"}, candidates[0].Metadata)

	// Re-ingesting replaces the topic wholesale.
	replacement := []domain.KBChunk{
		{TopicID: topicID, ChunkIndex: 0, Content: "rewritten chunk", Embedding: axisEmbedding(2)},
	}
	require.NoError(t, repo.ReplaceTopic(ctx, topicID, replacement))

	candidates, err = repo.Search(ctx, axisEmbedding(2), 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "rewritten chunk", candidates[0].Content)
}

func TestKBChunkRepository_Search_RanksByDistance(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewKBChunkRepository(pool)

	aligned := uuid.NewString()
	orthogonal := uuid.NewString()
	require.NoError(t, repo.ReplaceTopic(ctx, aligned, []domain.KBChunk{
		{TopicID: aligned, ChunkIndex: 0, Content: "aligned", Embedding: axisEmbedding(0)},
	}))
	require.NoError(t, repo.ReplaceTopic(ctx, orthogonal, []domain.KBChunk{
		{TopicID: orthogonal, ChunkIndex: 0, Content: "orthogonal", Embedding: axisEmbedding(1)},
	}))

	candidates, err := repo.Search(ctx, axisEmbedding(0), 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Exact match: distance 0 maps to score 1.0. Orthogonal: distance 1
	// maps to score 0.5.
	assert.Equal(t, "aligned", candidates[0].Content)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-6)
	assert.Equal(t, "orthogonal", candidates[1].Content)
	assert.InDelta(t, 0.5, candidates[1].Score, 1e-6)
}

func TestKBChunkRepository_Search_LimitAndEmpty(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewKBChunkRepository(pool)

	candidates, err := repo.Search(ctx, axisEmbedding(0), 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	topicID := uuid.NewString()
	require.NoError(t, repo.ReplaceTopic(ctx, topicID, []domain.KBChunk{
		{TopicID: topicID, ChunkIndex: 0, Content: "a", Embedding: axisEmbedding(0)},
		{TopicID: topicID, ChunkIndex: 1, Content: "b", Embedding: axisEmbedding(1)},
		{TopicID: topicID, ChunkIndex: 2, Content: "c", Embedding: axisEmbedding(2)},
	}))

	candidates, err = repo.Search(ctx, axisEmbedding(0), 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}
