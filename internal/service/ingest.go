package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/telemetry"
)

// KBIndexWriter defines the repository interface for populating the semantic index
type KBIndexWriter interface {
	ReplaceTopic(ctx context.Context, topicID string, chunks []domain.KBChunk) error
}

// IngestService chunks topic documents, embeds each chunk, and writes the
// result into the semantic index the retrieval client queries.
type IngestService struct {
	index     KBIndexWriter
	embedding EmbeddingClient
	chunkCfg  ChunkConfig
}

// NewIngestService creates a new IngestService instance
func NewIngestService(index KBIndexWriter, embedding EmbeddingClient) *IngestService {
	return &IngestService{
		index:     index,
		embedding: embedding,
		chunkCfg:  DefaultChunkConfig(),
	}
}

// IngestInput represents one topic document to index
type IngestInput struct {
	TopicID   string
	Content   string
	SourceURL string
	Metadata  map[string]string
}

// IngestTopic replaces the indexed chunks for a topic with freshly chunked
// and embedded content. Returns the number of chunks written.
func (s *IngestService) IngestTopic(ctx context.Context, input IngestInput) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestTopic", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	if strings.TrimSpace(input.TopicID) == "" {
		return 0, domain.NewDomainError(domain.ErrCodeValidation, "topic id is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return 0, domain.NewDomainError(domain.ErrCodeValidation, "topic content is required")
	}

	chunks := chunkText(input.Content, s.chunkCfg)

	entries := make([]domain.KBChunk, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedding.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return 0, domain.NewDomainErrorWithCause(domain.ErrCodeDependency,
				fmt.Sprintf("failed to embed chunk %d of topic %s", i, input.TopicID), err)
		}

		entries = append(entries, domain.KBChunk{
			TopicID:    input.TopicID,
			ChunkIndex: i,
			Content:    chunk,
			SourceURL:  input.SourceURL,
			Metadata:   input.Metadata,
			Embedding:  embedding,
		})
	}

	if err := s.index.ReplaceTopic(ctx, input.TopicID, entries); err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeDependency,
			fmt.Sprintf("failed to index topic %s", input.TopicID), err)
	}

	return len(entries), nil
}
