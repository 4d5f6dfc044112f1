package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/conversation"
	"ragchat/internal/domain"
)

// ChatPort is the TUI-facing subset of the conversation handle.
type ChatPort interface {
	Answer(ctx context.Context, question string) (string, error)
	Sources() []domain.SearchResult
}

type turn struct {
	question string
	answer   string
}

// answerMsg carries the result of an Answer call back into Update.
type answerMsg struct {
	question string
	answer   string
	err      error
}

// Model is the Bubble Tea model for the terminal chat.
type Model struct {
	ctx         context.Context
	chat        ChatPort
	input       textinput.Model
	viewport    viewport.Model
	turns       []turn
	sources     []domain.SearchResult
	sourcesFor  string
	showSources bool
	summary     string
	status      string
	waiting     bool
	ready       bool
}

// New creates a new TUI model. summary is shown under the title.
func New(ctx context.Context, chat ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or remember: <fact>"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		chat:     chat,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Enter to ask, Ctrl+S toggles sources, Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.chat.Answer(m.ctx, question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // title + summary, status, input frame, input line
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.input.SetValue(msg.question)
			return m, nil
		}
		m.turns = append(m.turns, turn{question: msg.question, answer: msg.answer})
		if conversation.ParseCommand(msg.question).Kind == conversation.KindRemember {
			// remembering touches neither retrieval nor the shown sources
			m.status = "Fact saved. It becomes searchable after a restart."
		} else {
			m.sources = m.chat.Sources()
			m.sourcesFor = msg.question
			m.status = fmt.Sprintf("Answered with %d source chunk(s).", len(m.sources))
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.showSources = !m.showSources
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.waiting = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		}
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the title, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Family Assistant")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	body := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	if m.showSources {
		m.viewport.SetContent(m.renderSources())
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(youStyle.Render("You: ") + t.question + "\n")
		sb.WriteString(botStyle.Render("Assistant: ") + t.answer)
	}
	return sb.String()
}

func (m Model) renderSources() string {
	if len(m.sources) == 0 {
		return "No sources for the last answer."
	}
	question := m.sourcesFor
	parts := make([]string, len(m.sources))
	for i, r := range m.sources {
		title := fmt.Sprintf("Source %d/%d  score=%.3f", i+1, len(m.sources), r.Score)
		parts[i] = title + "\n" + highlightBestSentence(r.Chunk.Text, question)
	}
	return strings.Join(parts, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe             = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe         = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// highlightBestSentence emphasises the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := tokenSet(query)
	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(qTokens, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == best && len(qTokens) > 0 {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	for t := range tokenSet(sentence) {
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}
