package repository

import (
	"context"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// KBChunkRepository implements the semantic index over indexed knowledge-base
// chunks stored with their embeddings.
type KBChunkRepository struct {
	db dbtx
}

func NewKBChunkRepository(pool *pgxpool.Pool) *KBChunkRepository {
	return &KBChunkRepository{db: pool}
}

func NewKBChunkRepositoryWithTx(tx dbtx) *KBChunkRepository {
	return &KBChunkRepository{db: tx}
}

// ReplaceTopic deletes existing chunks for a topic and inserts the new set.
func (r *KBChunkRepository) ReplaceTopic(ctx context.Context, topicID string, chunks []domain.KBChunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM kb_chunks WHERE topic_id = $1`, topicID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO kb_chunks (topic_id, chunk_index, content, source_url, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.TopicID,
			c.ChunkIndex,
			c.Content,
			nullableString(c.SourceURL),
			c.Metadata,
			pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Search returns up to maxResults candidates ranked by cosine distance to the
// query embedding. Scores are mapped to 1/(1+distance) so they stay in (0,1].
func (r *KBChunkRepository) Search(ctx context.Context, embedding []float32, maxResults int) ([]*domain.IndexCandidate, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	vec := pgvector.NewVector(embedding)
	rows, err := r.db.Query(ctx,
		`SELECT topic_id, content, source_url, metadata,
		        1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM kb_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, maxResults,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*domain.IndexCandidate
	for rows.Next() {
		var c domain.IndexCandidate
		var sourceURL *string
		if err := rows.Scan(&c.TopicID, &c.Content, &sourceURL, &c.Metadata, &c.Score); err != nil {
			return nil, err
		}
		if sourceURL != nil {
			c.SourceURL = *sourceURL
		}
		candidates = append(candidates, &c)
	}
	return candidates, rows.Err()
}
