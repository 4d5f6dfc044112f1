package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

type fakeChat struct {
	answer  string
	err     error
	asked   []string
	sources []domain.SearchResult
}

func (f *fakeChat) Answer(_ context.Context, q string) (string, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.err
}

func (f *fakeChat) Sources() []domain.SearchResult { return f.sources }

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

// submit types q, presses enter and feeds the answer back.
func submit(t *testing.T, m Model, q string) Model {
	t.Helper()
	m.input.SetValue(q)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.True(t, m.waiting)
	next, _ = m.Update(cmd())
	return next.(Model)
}

func TestModel_AnswerAppearsInTranscript(t *testing.T) {
	chat := &fakeChat{
		answer:  "Emily is Mark's daughter.",
		sources: []domain.SearchResult{{Chunk: domain.Chunk{Text: "Emily is Mark's daughter."}, Score: 0.9}},
	}
	m := sized(t, New(context.Background(), chat, "Mark likes tea."))
	assert.Contains(t, m.View(), "Mark likes tea.")

	m = submit(t, m, "Who is Emily?")

	assert.Equal(t, []string{"Who is Emily?"}, chat.asked)
	assert.False(t, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.renderTranscript(), "Who is Emily?")
	assert.Contains(t, m.renderTranscript(), "Emily is Mark's daughter.")
	assert.Contains(t, m.status, "1 source")
}

func TestModel_ErrorKeepsQuestion(t *testing.T) {
	chat := &fakeChat{err: errors.New("model backend unavailable")}
	m := sized(t, New(context.Background(), chat, ""))

	m = submit(t, m, "Who is Emily?")

	assert.Contains(t, m.status, "model backend unavailable")
	assert.Equal(t, "Who is Emily?", m.input.Value())
	assert.Empty(t, m.turns)
}

func TestModel_EmptyInputDoesNothing(t *testing.T) {
	chat := &fakeChat{}
	m := sized(t, New(context.Background(), chat, ""))
	m.input.SetValue("   ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, chat.asked)
}

func TestModel_ToggleSources(t *testing.T) {
	chat := &fakeChat{
		answer:  "Friday.",
		sources: []domain.SearchResult{{Chunk: domain.Chunk{Text: "Emily has a dentist appointment on Friday."}, Score: 0.7}},
	}
	m := sized(t, New(context.Background(), chat, ""))
	m = submit(t, m, "When is the dentist appointment?")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	assert.True(t, m.showSources)
	assert.Contains(t, m.renderSources(), "Source 1/1  score=0.700")
	assert.Contains(t, m.renderSources(), "dentist appointment on Friday.")
}

func TestModel_RememberKeepsPreviousSources(t *testing.T) {
	dentist := []domain.SearchResult{{Chunk: domain.Chunk{Text: "Emily has a dentist appointment on Friday."}, Score: 0.7}}
	chat := &fakeChat{answer: "Friday.", sources: dentist}
	m := sized(t, New(context.Background(), chat, ""))
	m = submit(t, m, "When is the dentist appointment?")

	chat.answer = "Got it. I've remembered that."
	chat.sources = []domain.SearchResult{{Chunk: domain.Chunk{Text: "stale"}, Score: 0.1}}
	m = submit(t, m, "remember: Zara plays the violin")

	assert.Len(t, m.turns, 2)
	assert.NotContains(t, m.status, "source")
	assert.Contains(t, m.status, "after a restart")
	assert.Equal(t, dentist, m.sources)
	assert.Equal(t, "When is the dentist appointment?", m.sourcesFor)
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), &fakeChat{}, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Mark likes tea. Emily has a dentist appointment on Friday. Lucy is a nurse."
	out := highlightBestSentence(text, "When is Emily's dentist appointment?")
	assert.Contains(t, out, "Mark likes tea.")
	assert.Contains(t, out, "dentist appointment on Friday.")
	assert.Contains(t, out, "Lucy is a nurse.")
	assert.Equal(t, "", highlightBestSentence("", "q"))
}
