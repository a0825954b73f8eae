// Package route turns qualified lead records into at-most-once email
// notifications: ordered field rules pick the destination, and a fingerprint
// of the routing-relevant fields deduplicates repeat sends per session.
package route

import (
	"fmt"
	"strings"
	"time"

	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// Rule maps one field predicate to a destination address. Rules are
// evaluated in order and the first match wins.
type Rule struct {
	Field       string `json:"field"`
	Equals      string `json:"equals"`
	Destination string `json:"destination"`
}

// Name identifies the rule in decisions and logs, e.g.
// "interest_area=enterprise".
func (r Rule) Name() string {
	return r.Field + "=" + r.Equals
}

func (r Rule) Matches(rec *leadx.Record) bool {
	if rec == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(rec.Field(r.Field)), r.Equals)
}

// RuleList decodes from a single environment value of the form
//
//	interest_area=enterprise:enterprise-sales@example.com,interest_area=smb:smb-sales@example.com
type RuleList []Rule

// Decode implements envconfig.Decoder.
func (rl *RuleList) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*rl = nil
		return nil
	}

	var rules []Rule
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		pred, dest, ok := strings.Cut(part, ":")
		if !ok {
			return fmt.Errorf("rule %q: missing destination", part)
		}
		field, equals, ok := strings.Cut(pred, "=")
		if !ok {
			return fmt.Errorf("rule %q: predicate must be field=value", part)
		}

		field = strings.TrimSpace(field)
		equals = strings.TrimSpace(equals)
		dest = strings.TrimSpace(dest)
		if field == "" || equals == "" || dest == "" {
			return fmt.Errorf("rule %q: empty component", part)
		}

		rules = append(rules, Rule{Field: field, Equals: equals, Destination: dest})
	}

	*rl = rules
	return nil
}

// Config is the router's environment surface (prefix ROUTE).
type Config struct {
	Rules       RuleList      `split_words:"true" default:"interest_area=enterprise:enterprise-sales@example.com,interest_area=smb:smb-sales@example.com,interest_area=individual:sales@example.com"`
	Default     string        `split_words:"true" default:"sales@example.com"`
	SendTimeout time.Duration `split_words:"true" default:"5s"`
}

// Destinations returns every address the config can route to, deduplicated,
// rule order first and the default last.
func (c Config) Destinations() []string {
	seen := make(map[string]struct{}, len(c.Rules)+1)
	var out []string
	add := func(dest string) {
		dest = strings.TrimSpace(dest)
		if dest == "" {
			return
		}
		if _, ok := seen[dest]; ok {
			return
		}
		seen[dest] = struct{}{}
		out = append(out, dest)
	}
	for _, r := range c.Rules {
		add(r.Destination)
	}
	add(c.Default)
	return out
}
