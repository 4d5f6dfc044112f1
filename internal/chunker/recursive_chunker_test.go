package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestChunk_ShortDocumentIsOneChunk(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkSize, DefaultChunkOverlap)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: "Mark likes tea.\n"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Mark likes tea.", chunks[0].Text)
	assert.Equal(t, "doc", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestChunk_EmptyDocument(t *testing.T) {
	c := NewRecursiveChunker(100, 10)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: "\n\n  \n"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_WindowsRespectSizeAndOverlap(t *testing.T) {
	var words []string
	for i := 0; i < 200; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	content := strings.Join(words, " ")

	c := NewRecursiveChunker(50, 10)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: content})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 50, "chunk %d too long", i)
		assert.Equal(t, i, ch.Index)
	}
	for i := 0; i+1 < len(chunks); i++ {
		first := strings.Fields(chunks[i+1].Text)[0]
		assert.Contains(t, strings.Fields(chunks[i].Text), first, "chunk %d does not overlap chunk %d", i+1, i)
	}

	joined := strings.Join(func() []string {
		out := make([]string, len(chunks))
		for i, ch := range chunks {
			out[i] = ch.Text
		}
		return out
	}(), " ")
	for _, w := range words {
		assert.Contains(t, strings.Fields(joined), w)
	}
}

func TestChunk_PrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 30)
	para2 := strings.Repeat("b", 30)
	c := NewRecursiveChunker(40, 0)

	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: para1 + "\n\n" + para2})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0].Text)
	assert.Equal(t, para2, chunks[1].Text)
}

func TestChunk_HardSplitsLongWords(t *testing.T) {
	c := NewRecursiveChunker(10, 0)
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: strings.Repeat("x", 25)})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("x", 10), chunks[0].Text)
	assert.Equal(t, strings.Repeat("x", 5), chunks[2].Text)
}

func TestNewRecursiveChunker_ClampsOverlap(t *testing.T) {
	c := NewRecursiveChunker(100, 100)
	assert.Equal(t, 20, c.overlap)

	c = NewRecursiveChunker(0, -1)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, 0, c.overlap)
}
