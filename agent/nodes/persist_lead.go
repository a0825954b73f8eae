package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// PersistLead writes the turn's record changes. A store failure is
// logged and swallowed: the visitor still gets a reply, and the next
// turn retries the write with re-merged data.
func PersistLead(
	ctx context.Context,
	in *GraphState,
	leads leadx.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Lead == nil || len(in.Turn.FieldsChanged) == 0 {
		return in, nil
	}
	if in.LeadLoadFailed {
		log.Warn().Str("session_id", in.SessionID).Msg("lead record not saved: load failed earlier this turn")
		return in, nil
	}

	if err := leads.Put(ctx, in.Lead); err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("lead record save failed")
	}
	return in, nil
}
