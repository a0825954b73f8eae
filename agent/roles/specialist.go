package roles

import (
	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

// specialistPolicy owns one lead segment. It keeps collecting contact
// details until the record qualifies, asks for routing then, and hands the
// visitor back out if their interest moves to another segment.
type specialistPolicy struct {
	role    statex.Role
	segment string
}

func (p specialistPolicy) Role() statex.Role { return p.role }

func (p specialistPolicy) Decide(sess *statex.Session, rec *leadx.Record, message string) contractx.PolicyDecision {
	if rec == nil {
		return contractx.PolicyDecision{Reply: segmentGreeting(p.segment)}
	}

	if target, ok := RoleForSegment(rec.InterestArea); ok && target != p.role {
		return contractx.PolicyDecision{
			Reply: askMissing(rec),
			Handoff: &contractx.HandoffRequest{
				Target: target,
				Reason: "interest moved to " + rec.InterestArea,
			},
		}
	}

	if rec.Status.AtLeast(leadx.StatusQualified) {
		return contractx.PolicyDecision{
			Reply:     wrapUpReply(p.segment, rec),
			WantRoute: true,
		}
	}

	return contractx.PolicyDecision{Reply: askMissing(rec)}
}
