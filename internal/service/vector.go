package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/telemetry"
)

// BlobStore defines the object storage interface the vector engine persists
// its records through.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
}

const (
	vectorKeyPrefix = "vectors"

	defaultContextTopK      = 5
	defaultContextThreshold = 0.3
)

// VectorService stores embedding batches as blobs and answers cosine
// similarity queries over everything an owner has uploaded.
type VectorService struct {
	blobs     BlobStore
	embedding EmbeddingClient
	uuidGen   UUIDGenerator
}

// NewVectorService creates a new VectorService instance
func NewVectorService(blobs BlobStore, embedding EmbeddingClient) *VectorService {
	return NewVectorServiceWithUUIDGen(blobs, embedding, &DefaultUUIDGenerator{})
}

// NewVectorServiceWithUUIDGen creates a new VectorService with custom UUID generator (for testing)
func NewVectorServiceWithUUIDGen(blobs BlobStore, embedding EmbeddingClient, uuidGen UUIDGenerator) *VectorService {
	return &VectorService{
		blobs:     blobs,
		embedding: embedding,
		uuidGen:   uuidGen,
	}
}

// Store writes one append-only blob of index-aligned embeddings and text
// chunks under the owner's namespace and returns the fresh vector id.
func (s *VectorService) Store(ctx context.Context, ownerID, documentType string, embeddings [][]float32, textChunks []string, metadata map[string]string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "VectorService.Store", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "store",
	})
	defer span.End()

	record := &domain.VectorRecord{
		VectorID:     s.uuidGen.NewString(),
		OwnerID:      ownerID,
		DocumentType: documentType,
		Embeddings:   embeddings,
		TextChunks:   textChunks,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}

	if err := domain.ValidateVectorRecord(record); err != nil {
		return "", err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode vector record", err)
	}

	key := vectorKey(ownerID, documentType, record.VectorID)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "failed to store vector record", err)
	}

	return record.VectorID, nil
}

// LoadAll enumerates every vector record under the owner's namespace. An
// owner with no stored vectors yields an empty slice, not an error.
func (s *VectorService) LoadAll(ctx context.Context, ownerID string) ([]*domain.VectorRecord, error) {
	keys, err := s.blobs.List(ctx, ownerPrefix(ownerID))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "failed to list vector records", err)
	}

	records := make([]*domain.VectorRecord, 0, len(keys))
	for _, key := range keys {
		data, err := s.blobs.Get(ctx, key)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, fmt.Sprintf("failed to load vector record %s", key), err)
		}

		var record domain.VectorRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, fmt.Sprintf("malformed vector record %s", key), err)
		}
		records = append(records, &record)
	}
	return records, nil
}

// Query embeds the query text and ranks every stored chunk of the owner by
// cosine similarity, descending, with the original chunk order as the stable
// tie-break. Matches below the threshold are discarded and the result is
// truncated to topK.
func (s *VectorService) Query(ctx context.Context, queryText, ownerID string, topK int, similarityThreshold float64) ([]*domain.VectorMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "VectorService.Query", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "query",
	})
	defer span.End()

	if strings.TrimSpace(queryText) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = defaultContextTopK
	}

	records, err := s.LoadAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []*domain.VectorMatch{}, nil
	}

	queryEmbedding, err := s.embedding.GenerateEmbedding(ctx, queryText)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "embedding model call failed", err)
	}

	var matches []*domain.VectorMatch
	chunkIndex := 0
	for _, record := range records {
		for i, embedding := range record.Embeddings {
			score := CosineSimilarity(queryEmbedding, embedding)
			if score >= similarityThreshold {
				matches = append(matches, &domain.VectorMatch{
					ChunkText:       record.TextChunks[i],
					SimilarityScore: score,
					ChunkIndex:      chunkIndex,
					Metadata:        record.Metadata,
				})
			}
			chunkIndex++
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// BuildContext concatenates the owner's best-matching chunks, each with a
// relevance marker, joined by blank lines. The result is hard-cut at
// maxContextLength characters; the cut is not word-boundary-aware, which is
// known lossy behavior.
func (s *VectorService) BuildContext(ctx context.Context, queryText, ownerID string, maxContextLength int) (string, error) {
	matches, err := s.Query(ctx, queryText, ownerID, defaultContextTopK, defaultContextThreshold)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s\n[Relevance: %.2f]", m.ChunkText, m.SimilarityScore))
	}

	context := strings.Join(parts, "\n\n")
	if maxContextLength > 0 && len(context) > maxContextLength {
		context = context[:maxContextLength]
	}
	return context, nil
}

// DeleteAll bulk-deletes every blob under the owner's namespace. Returns
// true even when zero objects existed.
func (s *VectorService) DeleteAll(ctx context.Context, ownerID string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "VectorService.DeleteAll", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "delete",
	})
	defer span.End()

	keys, err := s.blobs.List(ctx, ownerPrefix(ownerID))
	if err != nil {
		return false, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "failed to list vector records", err)
	}

	if len(keys) > 0 {
		if err := s.blobs.DeleteMany(ctx, keys); err != nil {
			return false, domain.NewDomainErrorWithCause(domain.ErrCodeDependency, "failed to delete vector records", err)
		}
	}
	return true, nil
}

// Statistics aggregates counts across every vector record of the owner.
func (s *VectorService) Statistics(ctx context.Context, ownerID string) (*domain.VectorStats, error) {
	records, err := s.LoadAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &domain.VectorStats{
		StorageInfo: map[string]string{
			"backend": "s3",
			"prefix":  ownerPrefix(ownerID),
		},
	}

	seenTypes := map[string]bool{}
	for _, record := range records {
		stats.TotalVectors++
		stats.TotalChunks += len(record.TextChunks)
		stats.TotalEmbeddings += len(record.Embeddings)
		if !seenTypes[record.DocumentType] {
			seenTypes[record.DocumentType] = true
			stats.DocumentTypes = append(stats.DocumentTypes, record.DocumentType)
		}
	}
	sort.Strings(stats.DocumentTypes)
	stats.TotalDocuments = len(stats.DocumentTypes)

	return stats, nil
}

// CosineSimilarity computes standard cosine similarity. Degenerate inputs
// (zero magnitude, dimension mismatch, empty vectors) yield 0.0 rather than
// an error or NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func ownerPrefix(ownerID string) string {
	return fmt.Sprintf("%s/%s/", vectorKeyPrefix, ownerID)
}

func vectorKey(ownerID, documentType, vectorID string) string {
	return fmt.Sprintf("%s/%s/%s/%s.json", vectorKeyPrefix, ownerID, documentType, vectorID)
}
