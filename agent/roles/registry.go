// Package roles implements the fixed conversational role set: an intake
// qualifier plus one specialist per lead segment. Policies are deterministic;
// they decide replies and handoffs from the lead record alone, never from
// model output.
package roles

import (
	"strings"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	statex "github.com/thanawat-k/leadqual/agent/state"
)

type registry struct {
	policies map[statex.Role]contractx.Policy
}

// NewRegistry wires the full role set.
func NewRegistry() contractx.Registry {
	return &registry{
		policies: map[statex.Role]contractx.Policy{
			statex.RoleIntake:     intakePolicy{},
			statex.RoleEnterprise: specialistPolicy{role: statex.RoleEnterprise, segment: "enterprise"},
			statex.RoleSMB:        specialistPolicy{role: statex.RoleSMB, segment: "smb"},
			statex.RoleIndividual: specialistPolicy{role: statex.RoleIndividual, segment: "individual"},
		},
	}
}

func (r *registry) Policy(role statex.Role) (contractx.Policy, bool) {
	p, ok := r.policies[role]
	return p, ok
}

// RoleForSegment maps an extracted interest area to its specialist role.
func RoleForSegment(segment string) (statex.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(segment)) {
	case "enterprise":
		return statex.RoleEnterprise, true
	case "smb":
		return statex.RoleSMB, true
	case "individual":
		return statex.RoleIndividual, true
	}
	return "", false
}
