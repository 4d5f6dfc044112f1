// Package domaintest provides deterministic domain.Embedder and
// domain.ChatModel implementations for tests.
package domaintest

import (
	"context"
	"errors"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	"ragchat/internal/domain"
)

var wordRe = regexp.MustCompile(`\p{L}+`)

// Embedder hashes lowercase words into a fixed number of buckets, so texts
// sharing words get similar vectors.
type Embedder struct {
	Model string
	Dim   int
	Err   error

	mu           sync.Mutex
	documentCall int
	queryCall    int
}

var _ domain.Embedder = (*Embedder)(nil)

func NewEmbedder() *Embedder { return &Embedder{Model: "bow", Dim: 256} }

func (e *Embedder) Name() string { return "stub:" + e.Model }

func (e *Embedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.documentCall++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCall++
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	return e.vector(text), nil
}

// DocumentCalls returns how many times EmbedDocuments ran.
func (e *Embedder) DocumentCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.documentCall
}

// QueryCalls returns how many times EmbedQuery ran.
func (e *Embedder) QueryCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queryCall
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.Dim)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[int(h.Sum32())%e.Dim]++
	}
	// keep empty texts off the zero vector
	v[0] += 0.01
	return v
}

// ChatModel answers from a script. Reply receives every message list and
// returns the completion; when nil, Answer is returned.
type ChatModel struct {
	Reply  func(messages []domain.Message) (string, error)
	Answer string

	mu    sync.Mutex
	calls [][]domain.Message
}

var _ domain.ChatModel = (*ChatModel)(nil)

// ErrUnavailable is a canned backend failure.
var ErrUnavailable = errors.New("model backend unavailable")

func (m *ChatModel) Complete(_ context.Context, messages []domain.Message) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]domain.Message(nil), messages...))
	m.mu.Unlock()
	if m.Reply != nil {
		return m.Reply(messages)
	}
	return m.Answer, nil
}

// Calls returns every message list the model received.
func (m *ChatModel) Calls() [][]domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]domain.Message(nil), m.calls...)
}

// LastPrompt returns the content of the last message of the last call.
func (m *ChatModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	last := m.calls[len(m.calls)-1]
	return last[len(last)-1].Content
}
