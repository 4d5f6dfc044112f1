package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
	"ragchat/internal/domain/domaintest"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/memory"
)

func cand(id string, score float64, vec ...float32) vectorstore.Candidate {
	return vectorstore.Candidate{
		Result: domain.SearchResult{Chunk: domain.Chunk{ID: id}, Score: score},
		Vector: vec,
	}
}

func ids(cs []vectorstore.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Result.Chunk.ID
	}
	return out
}

func TestSelect_PureRelevanceKeepsOrder(t *testing.T) {
	pool := []vectorstore.Candidate{
		cand("a", 0.9, 1, 0),
		cand("a-dup", 0.89, 1, 0),
		cand("b", 0.5, 0, 1),
	}
	assert.Equal(t, []string{"a", "a-dup"}, ids(Select(pool, 2, 1.0)))
}

func TestSelect_DiversityDropsNearDuplicates(t *testing.T) {
	pool := []vectorstore.Candidate{
		cand("a", 0.9, 1, 0),
		cand("a-dup", 0.89, 1, 0),
		cand("b", 0.7, 0, 1),
	}
	// 0.5*0.89 - 0.5*1 < 0.5*0.7 - 0.5*0
	assert.Equal(t, []string{"a", "b"}, ids(Select(pool, 2, 0.5)))
}

func TestSelect_FirstPickIsMostRelevant(t *testing.T) {
	pool := []vectorstore.Candidate{
		cand("low", 0.1, 0, 1),
		cand("high", 0.95, 1, 0),
	}
	got := Select(pool, 1, 0.8)
	assert.Equal(t, []string{"high"}, ids(got))
}

func TestSelect_KLargerThanPool(t *testing.T) {
	pool := []vectorstore.Candidate{cand("a", 0.3, 1)}
	assert.Len(t, Select(pool, 4, 0.8), 1)
	assert.Empty(t, Select(nil, 4, 0.8))
}

func TestMMR_RetrieveFromStore(t *testing.T) {
	emb := domaintest.NewEmbedder()
	store := memory.NewStorage()
	texts := []string{
		"Mark likes tea",
		"Mark likes tea a lot",
		"Emily has a dentist appointment",
		"Grandma lives in Ohio",
		"The dog is named Rex",
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, tx := range texts {
		chunks[i] = domain.Chunk{ID: tx, Index: i, Text: tx}
	}
	vecs, err := emb.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(chunks, vecs))

	r := NewMMR(emb, store, 2, 5, 0.8)
	res, err := r.Retrieve(context.Background(), "Mark likes tea?")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Contains(t, res[0].Chunk.Text, "Mark likes tea")
}

func TestMMR_EmbedFailure(t *testing.T) {
	emb := domaintest.NewEmbedder()
	emb.Err = errors.New("down")
	r := NewMMR(emb, memory.NewStorage(), 4, 8, 0.8)

	_, err := r.Retrieve(context.Background(), "q")
	assert.Error(t, err)
}

func TestNewMMR_Defaults(t *testing.T) {
	r := NewMMR(nil, nil, 0, 1, 7)
	assert.Equal(t, DefaultK, r.k)
	assert.Equal(t, DefaultK, r.fetchK)
	assert.Equal(t, DefaultLambda, r.lambda)
}

func TestNewMMR_ZeroLambdaIsKept(t *testing.T) {
	r := NewMMR(nil, nil, 4, 8, 0)
	assert.Equal(t, 0.0, r.lambda)
	assert.Equal(t, 8, r.fetchK)
}
