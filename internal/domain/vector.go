package domain

import (
	"fmt"
	"time"
)

// VectorRecord is one append-only batch of embeddings and their index-aligned
// text chunks, stored as a single blob under the owner's namespace.
type VectorRecord struct {
	VectorID     string              `json:"vector_id"`
	OwnerID      string              `json:"owner_id"`
	DocumentType string              `json:"document_type"`
	Embeddings   [][]float32         `json:"embeddings"`
	TextChunks   []string            `json:"text_chunks"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ValidateVectorRecord validates a VectorRecord instance
func ValidateVectorRecord(v *VectorRecord) error {
	if v == nil {
		return fmt.Errorf("vector record cannot be nil")
	}

	if v.VectorID == "" {
		return NewDomainError(ErrCodeValidation, "vector id is required")
	}

	if v.OwnerID == "" {
		return NewDomainError(ErrCodeValidation, "vector owner id is required")
	}

	if v.DocumentType == "" {
		return NewDomainError(ErrCodeValidation, "vector document type is required")
	}

	if len(v.Embeddings) != len(v.TextChunks) {
		return ErrEmbeddingChunkMismatch
	}

	return nil
}

// VectorMatch is a transient result of a similarity query.
type VectorMatch struct {
	ChunkText       string            `json:"chunk_text"`
	SimilarityScore float64           `json:"similarity_score"`
	ChunkIndex      int               `json:"chunk_index"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// VectorStats aggregates counts across every VectorRecord of one owner.
type VectorStats struct {
	TotalVectors    int               `json:"total_vectors"`
	TotalChunks     int               `json:"total_chunks"`
	TotalEmbeddings int               `json:"total_embeddings"`
	TotalDocuments  int               `json:"total_documents"`
	DocumentTypes   []string          `json:"document_types"`
	StorageInfo     map[string]string `json:"storage_info,omitempty"`
}
