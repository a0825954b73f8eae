package contract

import (
	"context"

	leadx "github.com/thanawat-k/leadqual/agent/lead"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

// Policy is one conversational role's deterministic behavior for a turn.
// Decide never mutates the session; it returns what it wants done.
type Policy interface {
	Role() statex.Role
	Decide(sess *statex.Session, rec *leadx.Record, message string) PolicyDecision
}

// Registry resolves the policy for a role.
type Registry interface {
	Policy(role statex.Role) (Policy, bool)
}

// Extractor pulls structured lead fields out of free text. Implementations
// are swappable; merge and qualification logic live outside this interface.
type Extractor interface {
	Extract(text string) leadx.Fields
}

// Engine runs one conversational turn against the active role.
type Engine interface {
	RunTurn(ctx context.Context, sess *statex.Session, rec *leadx.Record, message string) (TurnResult, error)
}

// Router decides whether and where a lead notification goes.
type Router interface {
	RouteIfNeeded(ctx context.Context, rec *leadx.Record) RouteOutcome
	ForceSend(ctx context.Context, rec *leadx.Record) RouteOutcome
	RelevantFields() []string
}

// Mailer is the outbound mail capability.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Composer optionally rewrites a deterministic draft reply in the active
// role's voice. A Composer error means "keep the draft".
type Composer interface {
	Compose(ctx context.Context, role statex.Role, draft string, rec *leadx.Record) (string, error)
}
