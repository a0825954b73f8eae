package prompt

import (
	_ "embed"
	"strings"

	statex "github.com/thanawat-k/leadqual/agent/state"
)

var (
	//go:embed template/intake.txt
	intakeRaw string

	//go:embed template/enterprise.txt
	enterpriseRaw string

	//go:embed template/smb.txt
	smbRaw string

	//go:embed template/individual.txt
	individualRaw string
)

// Set holds the loaded persona prompts, one per conversational role.
type Set struct {
	Intake     string
	Enterprise string
	SMB        string
	Individual string
}

// LoadSet returns a Set with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadSet() Set {
	return Set{
		Intake:     strings.TrimSpace(intakeRaw),
		Enterprise: strings.TrimSpace(enterpriseRaw),
		SMB:        strings.TrimSpace(smbRaw),
		Individual: strings.TrimSpace(individualRaw),
	}
}

// For returns the persona for a role, falling back to the intake persona
// for anything unrecognized.
func (s Set) For(role statex.Role) string {
	switch role {
	case statex.RoleEnterprise:
		return s.Enterprise
	case statex.RoleSMB:
		return s.SMB
	case statex.RoleIndividual:
		return s.Individual
	default:
		return s.Intake
	}
}
