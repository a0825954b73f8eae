// Package engine runs one conversational turn: input guardrail, field
// extraction and merge, role policy dispatch with at most one handoff, the
// synchronous routing call, and the output guardrail.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	extractx "github.com/thanawat-k/leadqual/agent/extract"
	guardrailx "github.com/thanawat-k/leadqual/agent/guardrail"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

type Engine struct {
	roles     contractx.Registry
	extractor contractx.Extractor
	policy    extractx.QualificationPolicy
	router    contractx.Router
	guard     *guardrailx.Guard

	now func() time.Time
}

var _ contractx.Engine = (*Engine)(nil)

// New assembles an engine. The router is optional: without one, turns still
// qualify leads and the pipeline's routing step does nothing.
func New(
	roles contractx.Registry,
	extractor contractx.Extractor,
	policy extractx.QualificationPolicy,
	router contractx.Router,
	guard *guardrailx.Guard,
) (*Engine, error) {
	if roles == nil {
		return nil, errors.New("role registry is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if guard == nil {
		guard = guardrailx.New()
	}

	return &Engine{
		roles:     roles,
		extractor: extractor,
		policy:    policy,
		router:    router,
		guard:     guard,
		now:       time.Now,
	}, nil
}

func (e *Engine) RunTurn(ctx context.Context, sess *statex.Session, rec *leadx.Record, message string) (contractx.TurnResult, error) {
	if sess == nil {
		return contractx.TurnResult{}, fmt.Errorf("%w: session is nil", contractx.ErrValidation)
	}
	message = strings.TrimSpace(message)
	now := e.now()

	// A blocked turn leaves no trace: no counter, no extraction, no writes.
	if err := e.guard.CheckInput(message); err != nil {
		log.Warn().Err(err).Str("session_id", sess.SessionID).Msg("input guardrail tripped")
		return contractx.TurnResult{Reply: guardrailx.InputFallback, Lead: rec}, nil
	}

	sess.TurnCount++
	sess.Touch(now)

	fields := e.extractor.Extract(message)
	if rec == nil && !fields.Empty() {
		rec = leadx.NewRecord(sess.SessionID, now)
	}
	var changed []string
	if rec != nil {
		changed = extractx.Merge(rec, fields, e.policy, now)
	}

	policy, ok := e.roles.Policy(sess.ActiveRole)
	if !ok {
		return contractx.TurnResult{}, fmt.Errorf("%w: no policy for role %q", contractx.ErrValidation, sess.ActiveRole)
	}
	decision := policy.Decide(sess, rec, message)

	var transition *statex.Handoff
	if decision.Handoff != nil {
		transition = e.applyHandoff(sess, rec, message, &decision, now)
	}

	result := contractx.TurnResult{
		Lead:          rec,
		FieldsChanged: changed,
		Transition:    transition,
	}

	if decision.WantRoute && e.router != nil && rec != nil {
		outcome := e.router.RouteIfNeeded(ctx, rec)
		result.Routed = true
		result.Route = outcome
		if outcome.Status == contractx.RouteFailed {
			log.Error().
				Str("session_id", sess.SessionID).
				Str("reason", outcome.Reason).
				Msg("routing failed during turn")
		}
	}

	reply, replaced := e.guard.ReviewOutput(decision.Reply)
	if replaced {
		log.Warn().
			Str("session_id", sess.SessionID).
			Str("role", string(sess.ActiveRole)).
			Msg("output guardrail replaced reply")
	}
	result.Reply = reply

	return result, nil
}

// applyHandoff performs at most one transition per turn. When the target
// role asks for another handoff on the same message, the request is logged
// and dropped; the visitor still sees the target's reply.
func (e *Engine) applyHandoff(sess *statex.Session, rec *leadx.Record, message string, decision *contractx.PolicyDecision, now time.Time) *statex.Handoff {
	req := decision.Handoff
	decision.Handoff = nil

	if err := sess.ApplyHandoff(req.Target, req.Reason, now); err != nil {
		log.Warn().
			Err(fmt.Errorf("%w: %v", contractx.ErrHandoffRejected, err)).
			Str("session_id", sess.SessionID).
			Str("target", string(req.Target)).
			Msg("handoff rejected")
		return nil
	}

	transition := *sess.LastHandoff()

	target, ok := e.roles.Policy(sess.ActiveRole)
	if !ok {
		log.Error().Str("role", string(sess.ActiveRole)).Msg("no policy registered for handoff target")
		return &transition
	}

	next := target.Decide(sess, rec, message)
	if next.Handoff != nil {
		log.Warn().
			Str("session_id", sess.SessionID).
			Str("from", string(transition.To)).
			Str("target", string(next.Handoff.Target)).
			Str("reason", next.Handoff.Reason).
			Msg("second handoff in one turn rejected")
	}

	decision.Reply = next.Reply
	decision.WantRoute = next.WantRoute
	return &transition
}
