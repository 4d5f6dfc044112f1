package vectorstore

import "ragchat/internal/domain"

// Storage holds chunk vectors and supports similarity search.
type Storage interface {
	Upsert(chunks []domain.Chunk, vectors [][]float32) error
	Search(vector []float32, topK int) ([]domain.SearchResult, error)
	Len() int
}

// Candidate is a search hit together with its stored vector, for re-ranking.
type Candidate struct {
	Result domain.SearchResult
	Vector []float32
}
