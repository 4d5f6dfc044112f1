// Package conversation answers questions over the vector index with
// conversational memory, and records "remember:" facts in the knowledge file.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ragchat/internal/document"
	"ragchat/internal/domain"
	"ragchat/internal/history"
	"ragchat/internal/index"
	"ragchat/internal/prompt"
	"ragchat/internal/retriever"
)

// RememberAck is returned after a fact is stored. The running index does not
// see the fact until the process restarts and rebuilds it.
const RememberAck = "Got it. I've remembered that. The update will be available after the application restarts."

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrEmptyFact     = errors.New("nothing to remember")
)

// Observer receives the outcome of every Answer call.
type Observer interface {
	ObserveAnswer(kind string, err error, took time.Duration)
}

// Deps are the collaborators a Handle is built from. K and FetchK fall back
// to the retriever defaults when zero. Lambda is used as given, so zero
// selects for diversity only.
type Deps struct {
	Index        *index.Index
	Embedder     domain.Embedder
	Model        domain.ChatModel
	DocumentPath string
	K            int
	FetchK       int
	Lambda       float64
	Logger       zerolog.Logger
	Observer     Observer
}

// Handle is the long-lived conversation: retriever, prompts and memory.
// Answer calls are serialised so the memory log stays consistent.
type Handle struct {
	retriever domain.Retriever
	model     domain.ChatModel
	docPath   string
	memory    *history.Buffer
	logger    zerolog.Logger
	observer  Observer

	mu          sync.Mutex
	lastSources []domain.SearchResult
}

// Build creates a handle with empty memory over an already loaded index.
// It never rebuilds the index.
func Build(deps Deps) (*Handle, error) {
	if deps.Index == nil || deps.Index.Store == nil {
		return nil, errors.New("index is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if deps.Model == nil {
		return nil, errors.New("chat model is required")
	}
	if deps.DocumentPath == "" {
		return nil, errors.New("document path is required")
	}
	return &Handle{
		retriever: retriever.NewMMR(deps.Embedder, deps.Index.Store, deps.K, deps.FetchK, deps.Lambda),
		model:     deps.Model,
		docPath:   deps.DocumentPath,
		memory:    history.NewBuffer(),
		logger:    deps.Logger.With().Str("component", "conversation").Logger(),
		observer:  deps.Observer,
	}, nil
}

// Memory exposes the conversational memory, read-only by convention.
func (h *Handle) Memory() *history.Buffer { return h.memory }

// Sources returns the chunks used for the most recent answered question.
func (h *Handle) Sources() []domain.SearchResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.SearchResult(nil), h.lastSources...)
}

// Answer handles one user input: either a "remember:" command or a question.
func (h *Handle) Answer(ctx context.Context, input string) (string, error) {
	cmd := ParseCommand(input)
	start := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		answer string
		err    error
	)
	switch cmd.Kind {
	case KindRemember:
		answer, err = h.remember(cmd.Text)
	default:
		answer, err = h.ask(ctx, cmd.Text)
	}
	if h.observer != nil {
		h.observer.ObserveAnswer(cmd.Kind.String(), err, time.Since(start))
	}
	return answer, err
}

func (h *Handle) remember(fact string) (string, error) {
	if fact == "" {
		return "", ErrEmptyFact
	}
	if err := document.Append(h.docPath, FormatFact(fact)); err != nil {
		h.logger.Error().Err(err).Msg("Failed to record fact")
		return "", fmt.Errorf("remember: %w", err)
	}
	h.memory.AddAI("Remember this fact for future questions: " + fact)
	h.logger.Info().Str("document", h.docPath).Msg("Fact appended; index refreshes on restart")
	return RememberAck, nil
}

func (h *Handle) ask(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", ErrEmptyQuestion
	}

	standalone := question
	if h.memory.Len() > 0 {
		p, err := prompt.Condense(h.memory.Transcript(), question)
		if err != nil {
			return "", err
		}
		standalone, err = h.model.Complete(ctx, []domain.Message{{Role: domain.RoleUser, Content: p}})
		if err != nil {
			return "", fmt.Errorf("condense question: %w", err)
		}
		standalone = strings.TrimSpace(standalone)
		if standalone == "" {
			standalone = question
		}
		h.logger.Debug().Str("question", question).Str("standalone", standalone).Msg("Condensed follow-up")
	}

	results, err := h.retriever.Retrieve(ctx, standalone)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	p, err := prompt.Answer(standalone, results)
	if err != nil {
		return "", err
	}
	answer, err := h.model.Complete(ctx, []domain.Message{{Role: domain.RoleUser, Content: p}})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	h.memory.AddTurn(question, answer)
	h.lastSources = results
	h.logger.Debug().Int("sources", len(results)).Msg("Answered question")
	return answer, nil
}
