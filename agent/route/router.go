package route

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// Router applies the ordered rule list to qualified records and keeps one
// notification per distinct routing snapshot per session. A failed send
// leaves no decision behind, so the next qualifying turn retries.
type Router struct {
	store  leadx.Store
	mailer contractx.Mailer

	rules       []Rule
	defaultDest string
	relevant    []string
	sendTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

var _ contractx.Router = (*Router)(nil)

func New(store leadx.Store, mailer contractx.Mailer, cfg Config) (*Router, error) {
	if store == nil {
		return nil, errors.New("lead store is required")
	}
	if mailer == nil {
		return nil, errors.New("mailer is required")
	}
	if len(cfg.Rules) == 0 && strings.TrimSpace(cfg.Default) == "" {
		return nil, errors.New("at least one routing rule or a default destination is required")
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Router{
		store:       store,
		mailer:      mailer,
		rules:       append([]Rule(nil), cfg.Rules...),
		defaultDest: strings.TrimSpace(cfg.Default),
		relevant:    relevantFields(cfg.Rules),
		sendTimeout: timeout,
		locks:       make(map[string]*sync.Mutex),
		now:         time.Now,
	}, nil
}

// relevantFields is every field a rule matches on plus the contact fields
// carried in the notification body, sorted for stable fingerprints.
func relevantFields(rules []Rule) []string {
	set := map[string]struct{}{
		leadx.FieldName:  {},
		leadx.FieldEmail: {},
	}
	for _, r := range rules {
		if f := strings.TrimSpace(r.Field); f != "" {
			set[f] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (r *Router) RelevantFields() []string {
	return append([]string(nil), r.relevant...)
}

func (r *Router) RouteIfNeeded(ctx context.Context, rec *leadx.Record) contractx.RouteOutcome {
	return r.route(ctx, rec, false)
}

// ForceSend is the operator override: it skips the duplicate check but not
// the qualification gate, and still records the decision it sends.
func (r *Router) ForceSend(ctx context.Context, rec *leadx.Record) contractx.RouteOutcome {
	return r.route(ctx, rec, true)
}

func (r *Router) route(ctx context.Context, rec *leadx.Record, force bool) contractx.RouteOutcome {
	if rec == nil || !rec.Status.AtLeast(leadx.StatusQualified) {
		return contractx.RouteOutcome{Status: contractx.RouteSkippedNotQualified}
	}

	unlock := r.lockSession(rec.SessionID)
	defer unlock()

	dest, ruleName := r.match(rec)
	if dest == "" {
		log.Error().
			Str("session_id", rec.SessionID).
			Msg("no routing rule matched and no default destination configured")
		return contractx.RouteOutcome{Status: contractx.RouteFailed, Reason: contractx.ErrNoRoute.Error()}
	}

	fp := r.fingerprint(rec)
	if !force {
		last, err := r.store.LatestDecision(ctx, rec.SessionID)
		switch {
		case err == nil:
			if last.Fingerprint == fp {
				return contractx.RouteOutcome{
					Status:      contractx.RouteSkippedDuplicate,
					Destination: dest,
					MatchedRule: ruleName,
				}
			}
		case !errors.Is(err, leadx.ErrNoDecision):
			log.Error().Err(err).Str("session_id", rec.SessionID).Msg("duplicate check failed")
			return contractx.RouteOutcome{
				Status: contractx.RouteFailed,
				Reason: fmt.Sprintf("duplicate check: %v", err),
			}
		}
	}

	subject, body := renderNotification(rec)
	if err := r.send(ctx, dest, subject, body); err != nil {
		log.Error().Err(err).
			Str("session_id", rec.SessionID).
			Str("destination", dest).
			Msg("notification send failed")
		return contractx.RouteOutcome{
			Status:      contractx.RouteFailed,
			Destination: dest,
			MatchedRule: ruleName,
			Reason:      fmt.Sprintf("%v: %v", contractx.ErrMailTransport, err),
		}
	}

	decision := &leadx.Decision{
		ID:          uuid.NewString(),
		SessionID:   rec.SessionID,
		Destination: dest,
		MatchedRule: ruleName,
		Fingerprint: fp,
		SentAt:      r.now().UTC(),
	}
	if err := r.store.AddDecision(ctx, decision); err != nil {
		// The mail went out but the snapshot is not on record, so the next
		// qualifying turn may send again. Failed keeps an operator looking.
		log.Error().Err(err).Str("session_id", rec.SessionID).Msg("routing decision not recorded")
		return contractx.RouteOutcome{
			Status:      contractx.RouteFailed,
			Destination: dest,
			MatchedRule: ruleName,
			Reason:      fmt.Sprintf("decision not recorded: %v", err),
		}
	}

	if rec.Advance(leadx.StatusRouted) {
		rec.UpdatedAt = r.now().UTC()
		if err := r.store.Put(ctx, rec); err != nil {
			log.Error().Err(err).Str("session_id", rec.SessionID).Msg("status update after send failed")
		}
	}

	log.Info().
		Str("session_id", rec.SessionID).
		Str("destination", dest).
		Str("rule", ruleName).
		Str("fingerprint", fp).
		Msg("lead notification sent")

	return contractx.RouteOutcome{
		Status:      contractx.RouteSent,
		Destination: dest,
		MatchedRule: ruleName,
	}
}

func (r *Router) match(rec *leadx.Record) (dest, ruleName string) {
	for _, rule := range r.rules {
		if rule.Matches(rec) {
			return rule.Destination, rule.Name()
		}
	}
	if r.defaultDest != "" {
		return r.defaultDest, "default"
	}
	return "", ""
}

// fingerprint hashes the routing-relevant fields, lowercased, in the stable
// relevant-field order. Fields outside the relevant set never affect dedup.
func (r *Router) fingerprint(rec *leadx.Record) string {
	h := fnv.New64a()
	for _, field := range r.relevant {
		io.WriteString(h, field)
		h.Write([]byte{0})
		io.WriteString(h, strings.ToLower(strings.TrimSpace(rec.Field(field))))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// send wraps each mail attempt in the configured timeout and allows one
// retry. A canceled parent context stops the retry.
func (r *Router) send(ctx context.Context, dest, subject, body string) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
		err := r.mailer.Send(sendCtx, dest, subject, body)
		cancel()
		if err == nil {
			if attempt > 0 {
				log.Warn().Str("destination", dest).Msg("notification sent on retry")
			}
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

func renderNotification(rec *leadx.Record) (subject, body string) {
	segment := strings.TrimSpace(rec.InterestArea)
	if segment == "" {
		segment = "sales"
	}
	who := strings.TrimSpace(rec.Name)
	if who == "" {
		who = rec.SessionID
	}
	return fmt.Sprintf("New %s lead: %s", segment, who), rec.Summary()
}

// Per-session locks keep the duplicate check and the decision write from
// racing when a turn and an operator notify overlap.
func (r *Router) lockSession(sessionID string) func() {
	r.mu.Lock()
	lk, ok := r.locks[sessionID]
	if !ok {
		lk = &sync.Mutex{}
		r.locks[sessionID] = lk
	}
	r.mu.Unlock()

	lk.Lock()
	return lk.Unlock
}
