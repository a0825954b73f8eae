// Package compose rewrites deterministic draft replies in the active
// role's persona voice. The model restates; the draft decides. When no
// LLM is configured the service runs without this package entirely.
package compose

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	promptx "github.com/thanawat-k/leadqual/agent/prompt"
	statex "github.com/thanawat-k/leadqual/agent/state"
	openrouterx "github.com/thanawat-k/leadqual/pkg/openrouter"
)

const rewriteInstruction = `Rewrite the draft reply below in your own voice.
Keep every question, fact, and commitment from the draft. Do not invent
details, prices, or promises that are not in the draft. Answer with the
rewritten reply only.`

type Composer struct {
	client  *openaisdk.Client
	cfg     openrouterx.Config
	prompts promptx.Set
}

var _ contractx.Composer = (*Composer)(nil)

// New returns nil when no client is configured. Callers treat a nil
// composer as "deterministic replies only".
func New(client *openaisdk.Client, cfg openrouterx.Config, prompts promptx.Set) *Composer {
	if client == nil {
		return nil
	}
	return &Composer{client: client, cfg: cfg, prompts: prompts}
}

func (c *Composer) Compose(ctx context.Context, role statex.Role, draft string, rec *leadx.Record) (string, error) {
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return "", fmt.Errorf("%w: draft reply is empty", contractx.ErrValidation)
	}

	system := c.prompts.For(role) + "\n\n" + rewriteInstruction

	var user strings.Builder
	user.WriteString("Draft reply:\n")
	user.WriteString(draft)
	if rec != nil && rec.HasAny() {
		user.WriteString("\n\nWhat we know about the visitor:\n")
		user.WriteString(rec.Summary())
	}

	out, err := openrouterx.Complete(ctx, c.client, c.cfg, system, user.String())
	if err != nil {
		return "", fmt.Errorf("compose reply: %w", err)
	}

	return out, nil
}
