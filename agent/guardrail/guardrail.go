// Package guardrail screens turn input and output. Checks are deliberately
// narrow: ordinary sales conversation must always pass, and a tripped
// guardrail reads like a normal reply to the visitor.
package guardrail

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrBlocked = errors.New("blocked by guardrail")

const (
	// InputFallback is the reply for rejected input. The turn leaves no
	// other trace: no extraction, no counters, no record writes.
	InputFallback = "I'm sorry, I didn't quite catch that. Could you tell me a bit about what you're looking for?"

	// OutputFallback replaces a draft that failed review.
	OutputFallback = "Thanks for reaching out! Could you tell me a little more about what you need?"
)

// Obvious keyboard mash and filler, not a profanity list. Matched as
// substrings of the lowered input.
var spamMarkers = []string{
	"asdfasdf", "qwertyqwerty", "testtesttest",
	"spamspamspam", "fakefakefake", "nonsensenonsense",
}

// Words a reply must not contain. Matched on word boundaries so "hello"
// never trips "hell".
var blockedWords = []string{"damn", "hell", "crap", "stupid", "idiot"}

type Guard struct {
	spam    []string
	blocked map[string]struct{}
}

func New() *Guard {
	blocked := make(map[string]struct{}, len(blockedWords))
	for _, w := range blockedWords {
		blocked[w] = struct{}{}
	}
	return &Guard{spam: spamMarkers, blocked: blocked}
}

// CheckInput rejects empty or obviously junk messages. nil means the
// message may reach a role policy.
func (g *Guard) CheckInput(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty message", ErrBlocked)
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range g.spam {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: spam marker %q", ErrBlocked, marker)
		}
	}
	return nil
}

// ReviewOutput returns a reply safe to show and whether the draft was
// replaced. An empty draft counts as a failure.
func (g *Guard) ReviewOutput(draft string) (string, bool) {
	trimmed := strings.TrimSpace(draft)
	if trimmed == "" {
		return OutputFallback, true
	}
	if g.containsBlockedWord(trimmed) {
		return OutputFallback, true
	}
	return trimmed, false
}

func (g *Guard) containsBlockedWord(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, bad := g.blocked[w]; bad {
			return true
		}
	}
	return false
}
