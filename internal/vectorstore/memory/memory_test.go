package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func chunk(id string) domain.Chunk { return domain.Chunk{ID: id, Text: id} }

func TestStorage_SearchOrdersByCosine(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert(
		[]domain.Chunk{chunk("east"), chunk("north"), chunk("northeast")},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	))

	res, err := s.Search([]float32{0, 2}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "north", res[0].Chunk.ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
	assert.Equal(t, "northeast", res[1].Chunk.ID)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Dimension())
}

func TestStorage_CandidatesCarryVectors(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Upsert([]domain.Chunk{chunk("a")}, [][]float32{{3, 4}}))

	cands, err := s.Candidates([]float32{3, 4}, 10)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, []float32{3, 4}, cands[0].Vector)
}

func TestStorage_Errors(t *testing.T) {
	s := NewStorage()
	assert.Error(t, s.Upsert([]domain.Chunk{chunk("a")}, nil))
	assert.Error(t, s.Upsert([]domain.Chunk{chunk("a")}, [][]float32{{}}))

	require.NoError(t, s.Upsert([]domain.Chunk{chunk("a")}, [][]float32{{1, 0}}))
	assert.Error(t, s.Upsert([]domain.Chunk{chunk("b")}, [][]float32{{1, 0, 0}}))

	_, err := s.Search([]float32{1, 0, 0}, 1)
	assert.Error(t, err)
}

func TestStorage_EmptySearch(t *testing.T) {
	res, err := NewStorage().Search([]float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-2, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}
