// Package history keeps the conversational memory of a chat handle: an
// ordered log of question and answer turns fed back to the model.
package history

import (
	"strings"
	"sync"

	"ragchat/internal/domain"
)

// Buffer is an append-only, goroutine-safe message log.
type Buffer struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) AddUser(content string) { b.add(domain.RoleUser, content) }

func (b *Buffer) AddAI(content string) { b.add(domain.RoleAssistant, content) }

// AddTurn records a question and its answer as one unit.
func (b *Buffer) AddTurn(question, answer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages,
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: answer},
	)
}

func (b *Buffer) add(role, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, domain.Message{Role: role, Content: content})
}

// Messages returns a copy of the log.
func (b *Buffer) Messages() []domain.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Message(nil), b.messages...)
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

// Transcript renders the log as "Human:" and "Assistant:" lines.
func (b *Buffer) Transcript() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	for i, m := range b.messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch m.Role {
		case domain.RoleUser:
			sb.WriteString("Human: ")
		case domain.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString(m.Role + ": ")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
