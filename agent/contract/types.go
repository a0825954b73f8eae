package contract

import (
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

// HandoffRequest asks to transfer the rest of the turn to another role.
type HandoffRequest struct {
	Target statex.Role `json:"target"`
	Reason string      `json:"reason"`
}

// PolicyDecision is one role's verdict for a single user message.
type PolicyDecision struct {
	Reply     string          `json:"reply"`
	Handoff   *HandoffRequest `json:"handoff,omitempty"`
	WantRoute bool            `json:"want_route,omitempty"`
}

// RouteStatus classifies the result of one routing attempt.
type RouteStatus string

const (
	RouteSent                RouteStatus = "sent"
	RouteSkippedDuplicate    RouteStatus = "skipped_duplicate"
	RouteSkippedNotQualified RouteStatus = "skipped_not_qualified"
	RouteFailed              RouteStatus = "failed"
)

// RouteOutcome reports what the notification router did for one record.
type RouteOutcome struct {
	Status      RouteStatus `json:"status"`
	Destination string      `json:"destination,omitempty"`
	MatchedRule string      `json:"matched_rule,omitempty"`
	Reason      string      `json:"reason,omitempty"`
}

// TurnResult is everything one engine turn produced: the draft reply, the
// merged lead, which fields moved, the accepted handoff if any, and the
// routing outcome when the turn attempted a route.
type TurnResult struct {
	Reply         string
	Lead          *leadx.Record
	FieldsChanged []string
	Transition    *statex.Handoff
	Routed        bool
	Route         RouteOutcome
}
