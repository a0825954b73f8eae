package lead

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound       = errors.New("lead record not found")
	ErrNoDecision     = errors.New("no routing decision recorded")
	ErrNilRecord      = errors.New("lead record is nil")
	ErrNilDecision    = errors.New("routing decision is nil")
	ErrInvalidSession = errors.New("session id is empty")
)

// Decision records one notification that actually went out for a session,
// together with the fingerprint of the routing-relevant fields at send time.
// The router compares new snapshots against the most recent decision only.
type Decision struct {
	bun.BaseModel `bun:"table:routing_decisions,alias:d"`

	ID          string    `bun:"id,pk" json:"id"`
	SessionID   string    `bun:"session_id,notnull" json:"session_id"`
	Destination string    `bun:"destination,notnull" json:"destination"`
	MatchedRule string    `bun:"matched_rule,notnull,default:''" json:"matched_rule,omitempty"`
	Fingerprint string    `bun:"fingerprint,notnull" json:"fingerprint"`
	SentAt      time.Time `bun:"sent_at,notnull" json:"sent_at"`
}

// Store persists lead records and routing decisions across restarts.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]*Record, error)
	Clear(ctx context.Context) error

	LatestDecision(ctx context.Context, sessionID string) (*Decision, error)
	AddDecision(ctx context.Context, d *Decision) error
	ListDecisions(ctx context.Context, sessionID string) ([]*Decision, error)

	Close() error
}
