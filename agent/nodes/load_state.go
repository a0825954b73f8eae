package turnnode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

func LoadState(
	ctx context.Context,
	in *GraphState,
	sessions statex.Store,
	leads leadx.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := loadOrCreateSession(ctx, sessions, in.SessionID, in.Now)
	if err != nil {
		return nil, err
	}
	in.Session = sess

	rec, err := leads.Get(ctx, in.SessionID)
	switch {
	case err == nil:
		in.Lead = rec
	case errors.Is(err, leadx.ErrNotFound):
		// First sighting of this visitor. The engine creates a record
		// once extraction finds something worth keeping.
	default:
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("lead record load failed")
		in.LeadLoadFailed = true
	}

	return in, nil
}

func loadOrCreateSession(
	ctx context.Context,
	store statex.Store,
	sessionID string,
	now time.Time,
) (*statex.Session, error) {
	sess, err := store.Load(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, statex.ErrSessionNotFound) {
		return nil, err
	}

	return statex.NewSession(sessionID, now), nil
}
