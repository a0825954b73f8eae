package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// RouteIfQualified is the backstop for turns where the record reached
// QUALIFIED without the active role asking for a route. The router's
// own dedup makes a second pass harmless.
func RouteIfQualified(
	ctx context.Context,
	in *GraphState,
	router contractx.Router,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if router == nil || in.Turn.Routed || in.LeadLoadFailed {
		return in, nil
	}
	if in.Lead == nil || !in.Lead.Status.AtLeast(leadx.StatusQualified) {
		return in, nil
	}
	if !intersects(in.Turn.FieldsChanged, router.RelevantFields()) {
		return in, nil
	}

	outcome := router.RouteIfNeeded(ctx, in.Lead)
	in.Turn.Routed = true
	in.Turn.Route = outcome
	if outcome.Status == contractx.RouteFailed {
		log.Error().
			Str("session_id", in.SessionID).
			Str("reason", outcome.Reason).
			Msg("lead routing failed")
	}

	return in, nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
