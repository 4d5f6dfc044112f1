package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"ragchat/internal/domain"
)

// IDontKnow is the exact reply the model is told to give when the context is insufficient.
const IDontKnow = "I don't know."

const answerText = `
You are answering questions about a fictional family.
Use ONLY the information in the context.
You may combine facts from multiple parts of the context.
If the answer cannot be determined from the context, reply exactly:
"` + IDontKnow + `"

Context:
{{.Context}}

Question:
{{.Question}}

Answer:
`

const condenseText = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
{{.History}}
Follow Up Input: {{.Question}}
Standalone question:`

var (
	answerTmpl   = template.Must(template.New("answer").Parse(answerText))
	condenseTmpl = template.Must(template.New("condense").Parse(condenseText))
)

// Answer renders the question-answering prompt over the retrieved chunks.
func Answer(question string, results []domain.SearchResult) (string, error) {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Text
	}
	return render(answerTmpl, map[string]string{
		"Context":  strings.Join(parts, "\n\n"),
		"Question": question,
	})
}

// Condense renders the prompt that turns a follow-up into a standalone question.
func Condense(history, question string) (string, error) {
	return render(condenseTmpl, map[string]string{
		"History":  history,
		"Question": question,
	})
}

func render(t *template.Template, data map[string]string) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return sb.String(), nil
}
