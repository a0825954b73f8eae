// Package extract pulls structured lead fields out of free-form chat text.
// The heuristics are intentionally best-effort: a missed field costs one
// follow-up question from a role policy, never a failed turn.
package extract

import (
	"regexp"
	"strings"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// Heuristic is the default Extractor: anchored patterns for contact fields
// plus word-bounded keyword cues for segment, budget, and urgency.
type Heuristic struct{}

var _ contractx.Extractor = Heuristic{}

func NewHeuristic() Heuristic {
	return Heuristic{}
}

// Cue-anchored patterns require a capitalized candidate so "I'm interested"
// never reads as a name called "interested".
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[Ii]'m\s+([A-Z][a-zA-Z'-]*(?:\s+[A-Z][a-zA-Z'-]+)?)`),
	regexp.MustCompile(`\b[Ii] am\s+([A-Z][a-zA-Z'-]*(?:\s+[A-Z][a-zA-Z'-]+)?)`),
	regexp.MustCompile(`\b[Nn]ame(?:'s| is)\s+([A-Z][a-zA-Z'-]*(?:\s+[A-Z][a-zA-Z'-]+)?)`),
	regexp.MustCompile(`\b[Tt]his is\s+([A-Z][a-zA-Z'-]*(?:\s+[A-Z][a-zA-Z'-]+)?)`),
}

// Words that can trail a name capture when users type in title case.
var nameConnectors = map[string]struct{}{
	"from": {}, "at": {}, "with": {}, "and": {}, "in": {}, "of": {}, "the": {},
}

var nameStoplist = map[string]struct{}{
	"interested": {}, "looking": {}, "hoping": {}, "curious": {},
	"happy": {}, "glad": {}, "sure": {}, "sorry": {},
}

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:[Aa]t|[Ff]rom|[Ww]ith|[Ff]or|[Ww]ork(?:ing)?\s+(?:at|for))\s+([A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]+)*)`),
	regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]+)*)\s+(?:Inc|LLC|Corp|Ltd|Co|Company|Corporation)\b`),
}

// Segment words masquerading as companies when typed in title case.
var companyStoplist = map[string]struct{}{
	"enterprise": {}, "smb": {}, "individual": {}, "personal": {},
	"hello": {}, "hi": {}, "thanks": {}, "me": {},
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}\b`),
}

// interestCues is ordered: the first area with a hit wins the turn.
var interestCues = []struct {
	area     string
	patterns []*regexp.Regexp
}{
	{area: "enterprise", patterns: cuePatterns(
		"enterprise", "corporation", "company-wide", "large team",
		"large organization", "1000 employees", "thousand employees",
		"procurement", "compliance", "sso",
	)},
	{area: "smb", patterns: cuePatterns(
		"smb", "small business", "small-business", "startup",
		"growing team", "growing business", "small team", "small company",
		"agency",
	)},
	{area: "individual", patterns: cuePatterns(
		"individual", "personal use", "personal plan", "for personal",
		"just me", "just for me", "myself",
		"freelance", "freelancer", "freelancing", "solo", "hobby",
	)},
}

var (
	dollarPattern    = regexp.MustCompile(`\$\s*\d[\d,]*(?:\.\d+)?\s*(?:[kKmM]\b|million|thousand)?`)
	budgetCuePattern = regexp.MustCompile(`[Bb]udget(?:\s+(?:is|of|around|about))?\s+(\$?\d[\d,]*(?:\.\d+)?\s*(?:[kKmM]\b|million|thousand)?)`)
)

var urgencyCues = cuePatterns(
	"asap", "urgent", "urgently", "immediately", "right away",
	"as soon as possible", "this week", "this month", "this quarter",
	"today", "by friday",
)

// cuePatterns compiles lowercase cues into word-bounded matchers so "sso"
// does not fire inside "professor".
func cuePatterns(cues ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(cues))
	for _, cue := range cues {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(cue)+`\b`))
	}
	return out
}

func (Heuristic) Extract(text string) leadx.Fields {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return leadx.Fields{}
	}
	lower := strings.ToLower(trimmed)

	return leadx.Fields{
		Name:          extractName(trimmed),
		Email:         emailPattern.FindString(trimmed),
		Company:       extractCompany(trimmed),
		Phone:         extractPhone(trimmed),
		InterestArea:  extractInterest(lower),
		BudgetSignal:  extractBudget(trimmed, lower),
		UrgencySignal: extractUrgency(lower),
	}
}

func extractName(text string) string {
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if candidate := cleanName(m[1]); candidate != "" {
			return candidate
		}
	}
	return ""
}

func cleanName(raw string) string {
	words := strings.Fields(raw)
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		if _, connector := nameConnectors[last]; !connector {
			break
		}
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return ""
	}
	if _, stop := nameStoplist[strings.ToLower(words[0])]; stop {
		return ""
	}
	return strings.Join(words, " ")
}

func extractCompany(text string) string {
	for _, pattern := range companyPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if _, stop := companyStoplist[strings.ToLower(candidate)]; stop {
			continue
		}
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func extractPhone(text string) string {
	for _, pattern := range phonePatterns {
		if m := pattern.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func extractInterest(lower string) string {
	for _, cue := range interestCues {
		for _, pattern := range cue.patterns {
			if pattern.MatchString(lower) {
				return cue.area
			}
		}
	}
	return ""
}

func extractBudget(text, lower string) string {
	if m := dollarPattern.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	if m := budgetCuePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.Contains(lower, "budget") {
		return "budget mentioned"
	}
	return ""
}

func extractUrgency(lower string) string {
	for _, pattern := range urgencyCues {
		if m := pattern.FindString(lower); m != "" {
			return m
		}
	}
	return ""
}
