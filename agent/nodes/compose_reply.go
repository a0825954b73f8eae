package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	guardrailx "github.com/thanawat-k/leadqual/agent/guardrail"
)

// ComposeReply optionally rewrites the deterministic draft in the
// active role's voice. Any failure keeps the draft: composition is
// polish, not policy. The composed text is the one reply source the
// engine has not reviewed, so it goes back through the guard here.
func ComposeReply(
	ctx context.Context,
	in *GraphState,
	composer contractx.Composer,
	guard *guardrailx.Guard,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if composer == nil || strings.TrimSpace(in.Reply) == "" {
		return in, nil
	}

	out, err := composer.Compose(ctx, in.Session.ActiveRole, in.Reply, in.Lead)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("reply composition failed, keeping draft")
		return in, nil
	}

	if guard != nil {
		reviewed, replaced := guard.ReviewOutput(out)
		if replaced {
			log.Warn().Str("session_id", in.SessionID).Msg("composed reply failed review, keeping draft")
			return in, nil
		}
		out = reviewed
	}

	if strings.TrimSpace(out) != "" {
		in.Reply = out
	}

	return in, nil
}
