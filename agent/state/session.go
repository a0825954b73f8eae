package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role identifies one of the fixed conversational agents. The intake role
// opens every session; specialist roles each own one lead segment.
type Role string

const (
	RoleIntake     Role = "intake"
	RoleEnterprise Role = "enterprise"
	RoleSMB        Role = "smb"
	RoleIndividual Role = "individual"
)

// AllRoles lists the defined role set in display order.
var AllRoles = []Role{RoleIntake, RoleEnterprise, RoleSMB, RoleIndividual}

func (r Role) Valid() bool {
	switch r {
	case RoleIntake, RoleEnterprise, RoleSMB, RoleIndividual:
		return true
	}
	return false
}

// Handoff is one accepted role transition.
type Handoff struct {
	From   Role      `json:"from"`
	To     Role      `json:"to"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Session is the transient per-conversation state: which role currently
// speaks, how it got there, and how many turns have run. It lives in the
// in-process store for the life of the conversation and is dropped at
// session end; the lead record is persisted separately.
type Session struct {
	SessionID      string    `json:"session_id"`
	ActiveRole     Role      `json:"active_role"`
	HandoffHistory []Handoff `json:"handoff_history,omitempty"`
	TurnCount      int       `json:"turn_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilSession      = errors.New("session is nil")
	ErrInvalidSession  = errors.New("session id is empty")
	ErrUnknownRole     = errors.New("unknown role")
	ErrSelfHandoff     = errors.New("handoff target equals active role")
)

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID:  sessionID,
		ActiveRole: RoleIntake,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

/* ----------------------------- Handoff helpers ---------------------------- */

// ApplyHandoff switches the active role and appends the transition to the
// history. The engine decides whether a handoff is allowed this turn; this
// only rejects structurally invalid transitions.
func (s *Session) ApplyHandoff(to Role, reason string, now time.Time) error {
	if s == nil {
		return ErrNilSession
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, to)
	}
	if to == s.ActiveRole {
		return fmt.Errorf("%w: %q", ErrSelfHandoff, to)
	}

	s.HandoffHistory = append(s.HandoffHistory, Handoff{
		From:   s.ActiveRole,
		To:     to,
		Reason: strings.TrimSpace(reason),
		At:     now.UTC(),
	})
	s.ActiveRole = to
	s.Touch(now)
	return nil
}

// LastHandoff returns the most recent transition, or nil.
func (s *Session) LastHandoff() *Handoff {
	if s == nil || len(s.HandoffHistory) == 0 {
		return nil
	}
	return &s.HandoffHistory[len(s.HandoffHistory)-1]
}

// Clone returns a deep copy so store reads never alias live state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.HandoffHistory = append([]Handoff(nil), s.HandoffHistory...)
	return &out
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if !s.ActiveRole.Valid() {
		return fmt.Errorf("%w: active_role=%q", ErrUnknownRole, s.ActiveRole)
	}
	for i, h := range s.HandoffHistory {
		if !h.From.Valid() || !h.To.Valid() {
			return fmt.Errorf("%w: handoff_history[%d]", ErrUnknownRole, i)
		}
	}
	return nil
}
