// Package retriever selects context chunks for a question using maximal
// marginal relevance over a candidate pool from the vector store.
package retriever

import (
	"context"
	"fmt"

	"ragchat/internal/domain"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/memory"
)

// Defaults mirror a small-document chatbot: a pool of 8, keep 4, lean toward relevance.
const (
	DefaultK      = 4
	DefaultFetchK = 8
	DefaultLambda = 0.8
)

// CandidateSource returns the most similar stored chunks with their vectors.
type CandidateSource interface {
	Candidates(vector []float32, topK int) ([]vectorstore.Candidate, error)
}

// MMR balances relevance to the query against redundancy among picked chunks.
type MMR struct {
	embedder domain.Embedder
	source   CandidateSource
	k        int
	fetchK   int
	lambda   float64
}

var _ domain.Retriever = (*MMR)(nil)

func NewMMR(embedder domain.Embedder, source CandidateSource, k, fetchK int, lambda float64) *MMR {
	if k <= 0 {
		k = DefaultK
	}
	if fetchK < k {
		fetchK = k
	}
	if lambda < 0 || lambda > 1 {
		lambda = DefaultLambda
	}
	return &MMR{embedder: embedder, source: source, k: k, fetchK: fetchK, lambda: lambda}
}

func (r *MMR) Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	qv, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	pool, err := r.source.Candidates(qv, r.fetchK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	picked := Select(pool, r.k, r.lambda)
	out := make([]domain.SearchResult, len(picked))
	for i, c := range picked {
		out[i] = c.Result
	}
	return out, nil
}

// Select greedily picks k candidates. Each step maximises
// lambda*relevance - (1-lambda)*max similarity to already picked candidates,
// where relevance is the candidate's query score.
func Select(pool []vectorstore.Candidate, k int, lambda float64) []vectorstore.Candidate {
	if k > len(pool) {
		k = len(pool)
	}
	picked := make([]vectorstore.Candidate, 0, k)
	used := make([]bool, len(pool))
	for len(picked) < k {
		best, bestScore := -1, 0.0
		for i, c := range pool {
			if used[i] {
				continue
			}
			redundancy := 0.0
			for j, p := range picked {
				sim := memory.Cosine(c.Vector, p.Vector)
				if j == 0 || sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*c.Result.Score - (1-lambda)*redundancy
			if best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		picked = append(picked, pool[best])
	}
	return picked
}
