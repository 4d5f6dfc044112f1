package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestAnswer(t *testing.T) {
	out, err := Answer("Who likes tea?", []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "Mark likes tea."}},
		{Chunk: domain.Chunk{Text: "Emily likes dogs."}},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Use ONLY the information in the context.")
	assert.Contains(t, out, `reply exactly:`+"\n"+`"I don't know."`)
	assert.Contains(t, out, "Context:\nMark likes tea.\n\nEmily likes dogs.\n")
	assert.Contains(t, out, "Question:\nWho likes tea?\n")
}

func TestAnswer_NoTemplateEscaping(t *testing.T) {
	out, err := Answer("Is 1 < 2 & \"yes\"?", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Is 1 < 2 & \"yes\"?")
}

func TestCondense(t *testing.T) {
	out, err := Condense("Human: Who is Emily?\nAssistant: Mark's daughter.", "When is her appointment?")
	require.NoError(t, err)
	assert.Contains(t, out, "Chat History:\nHuman: Who is Emily?")
	assert.Contains(t, out, "Follow Up Input: When is her appointment?")
	assert.True(t, len(out) > 0 && out[len(out)-1] == ':')
}
