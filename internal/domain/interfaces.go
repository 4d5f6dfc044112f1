package domain

import "context"

// Document represents the knowledge file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is an overlapping window of a document used for indexing.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Text       string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Chat roles understood by ChatModel implementations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat exchange.
type Message struct {
	Role    string
	Content string
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// Name identifies the backend and model; indexes built with one embedder
// are not valid for another.
type Embedder interface {
	Name() string
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel produces a completion for an ordered list of messages.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Retriever returns the chunks most useful for answering query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]SearchResult, error)
}
