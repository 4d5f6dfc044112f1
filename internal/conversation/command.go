package conversation

import (
	"strings"
)

// Kind distinguishes plain questions from commands.
type Kind int

const (
	KindQuestion Kind = iota
	KindRemember
)

func (k Kind) String() string {
	switch k {
	case KindRemember:
		return "remember"
	default:
		return "question"
	}
}

const rememberPrefix = "remember:"

// Command is user input parsed at the boundary.
type Command struct {
	Kind Kind
	// Text is the question, or the fact to remember with the prefix removed.
	Text string
}

// ParseCommand recognises the case-insensitive "remember:" prefix.
func ParseCommand(input string) Command {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) >= len(rememberPrefix) && strings.EqualFold(trimmed[:len(rememberPrefix)], rememberPrefix) {
		return Command{Kind: KindRemember, Text: strings.TrimSpace(trimmed[len(rememberPrefix):])}
	}
	return Command{Kind: KindQuestion, Text: trimmed}
}

// FormatFact turns a remembered fact into a labelled block that chunks well.
func FormatFact(fact string) string {
	return "Family Update:\n" + strings.TrimRight(strings.TrimSpace(fact), ".") + "."
}
