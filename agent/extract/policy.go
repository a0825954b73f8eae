package extract

import (
	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// QualificationPolicy decides when a record has enough structure to notify
// the sales team. It is configuration, not code: the default demands an
// email address plus an identified segment, and both knobs load from the
// environment under the QUALIFY prefix.
type QualificationPolicy struct {
	// AcceptNameAsContact widens the contact requirement from email-only
	// to name-or-email.
	AcceptNameAsContact bool `split_words:"true" default:"false"`
	// RequireInterest demands an interest area before a lead qualifies.
	RequireInterest bool `split_words:"true" default:"true"`
}

func DefaultQualificationPolicy() QualificationPolicy {
	return QualificationPolicy{AcceptNameAsContact: false, RequireInterest: true}
}

// Evaluate returns the highest status rec can claim under the policy.
// Callers apply it through Record.Advance, so an already-routed record
// stays ROUTED whatever Evaluate says.
func (p QualificationPolicy) Evaluate(rec *leadx.Record) leadx.Status {
	if rec == nil || !rec.HasAny() {
		return leadx.StatusNew
	}
	if p.qualified(rec) {
		return leadx.StatusQualified
	}
	return leadx.StatusPartial
}

func (p QualificationPolicy) qualified(rec *leadx.Record) bool {
	contact := rec.Email != ""
	if p.AcceptNameAsContact {
		contact = contact || rec.Name != ""
	}
	if !contact {
		return false
	}
	if p.RequireInterest && rec.InterestArea == "" {
		return false
	}
	return true
}
