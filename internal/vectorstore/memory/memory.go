package memory

import (
	"errors"
	"math"
	"sort"
	"sync"

	"ragchat/internal/domain"
	"ragchat/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

// Upsert appends chunks. The first vector fixes the store's dimension.
func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) == 0 {
			return errors.New("empty vector")
		}
		if s.dimension == 0 {
			s.dimension = len(v)
		}
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Storage) Search(vector []float32, topK int) ([]domain.SearchResult, error) {
	cands, err := s.Candidates(vector, topK)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, len(cands))
	for i, c := range cands {
		results[i] = c.Result
	}
	return results, nil
}

// Candidates returns the topK most similar chunks along with their vectors.
func (s *Storage) Candidates(vector []float32, topK int) ([]vectorstore.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	if topK <= 0 {
		topK = 4
	}
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = Cosine(s.vectors[i], vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	out := make([]vectorstore.Candidate, 0, topK)
	for _, j := range idxs[:topK] {
		out = append(out, vectorstore.Candidate{
			Result: domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]},
			Vector: s.vectors[j],
		})
	}
	return out, nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Dimension is zero until the first Upsert.
func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
