// Package summarizer produces a short extractive overview of the knowledge
// file, shown in the chat header and after a reindex.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultSentences is the overview length used by the front ends.
const DefaultSentences = 3

var (
	tokenRe    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)
	// "Family Update:" style labels carry no facts of their own
	labelRe = regexp.MustCompile(`(?m)^[^\n.!?]{1,40}:[ \t]*$`)
)

// Frequency ranks sentences by the normalised frequency of their non-stopword
// tokens and keeps the best ones in document order.
type Frequency struct {
	stopwords map[string]struct{}
}

func NewFrequency() *Frequency {
	return &Frequency{stopwords: defaultStopwords()}
}

// Summarize returns at most maxSentences sentences of text. Text without
// sentence punctuation is returned trimmed.
func (s *Frequency) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}
	text = labelRe.ReplaceAllString(text, "")
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.Join(strings.Fields(text), " ")
	}
	for i := range sentences {
		sentences[i] = strings.Join(strings.Fields(sentences[i]), " ")
	}

	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	top := 0.0
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
			top = math.Max(top, freq[tok])
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, toks := range tokens {
		var sum float64
		for _, tok := range toks {
			sum += freq[tok] / top
		}
		if len(toks) > 0 {
			// dampen long sentences
			sum /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = ranked{idx: i, score: sum}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}
	picked := make([]int, maxSentences)
	for i := range picked {
		picked[i] = scores[i].idx
	}
	sort.Ints(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

func (s *Frequency) tokens(text string) []string {
	all := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := all[:0]
	for _, t := range all {
		if _, stop := s.stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := strings.Fields(`a an the and or but if then else for to of in on at by with as is are was were be been
		being it its this that these those from up down over under again than so such into about between through
		during before after above below out off own same too very can will just should now has have had he she
		his her they them their also`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
