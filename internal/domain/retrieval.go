package domain

// RetrievedChunk is an ephemeral result of a knowledge-base query. Chunk IDs
// are synthesized from the candidate's position in the raw result list and
// are only stable within a single query's result set.
type RetrievedChunk struct {
	ChunkID        string            `json:"chunk_id"`
	TopicID        string            `json:"topic_id,omitempty"`
	Content        string            `json:"content"`
	Score          float64           `json:"score"`
	SourceURL      string            `json:"source_url,omitempty"`
	SourceMetadata map[string]string `json:"source_metadata,omitempty"`
}

// KBChunk is one indexed unit of knowledge-base content, stored in the
// semantic index with its embedding.
type KBChunk struct {
	TopicID    string
	ChunkIndex int
	Content    string
	SourceURL  string
	Metadata   map[string]string
	Embedding  []float32
}

// IndexCandidate is a raw scored candidate returned by the semantic index,
// before threshold filtering and chunk-id synthesis.
type IndexCandidate struct {
	TopicID   string
	Content   string
	Score     float64
	SourceURL string
	Metadata  map[string]string
}
