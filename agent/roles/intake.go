package roles

import (
	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

// intakePolicy greets, gathers the basics, and hands the conversation to a
// specialist the moment the lead's segment is clear.
type intakePolicy struct{}

func (intakePolicy) Role() statex.Role { return statex.RoleIntake }

func (intakePolicy) Decide(sess *statex.Session, rec *leadx.Record, message string) contractx.PolicyDecision {
	if rec != nil {
		if target, ok := RoleForSegment(rec.InterestArea); ok {
			return contractx.PolicyDecision{
				// The reply only shows if the handoff is rejected; the
				// specialist speaks otherwise.
				Reply: askMissing(rec),
				Handoff: &contractx.HandoffRequest{
					Target: target,
					Reason: "interest identified: " + rec.InterestArea,
				},
			}
		}
	}
	return contractx.PolicyDecision{Reply: intakeAsk(rec)}
}
