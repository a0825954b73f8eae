package route

import (
	"reflect"
	"testing"
	"time"

	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

func TestRuleListDecode(t *testing.T) {
	t.Parallel()

	var rl RuleList
	err := rl.Decode("interest_area=enterprise:enterprise-sales@example.com, interest_area=smb:smb-sales@example.com")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := RuleList{
		{Field: "interest_area", Equals: "enterprise", Destination: "enterprise-sales@example.com"},
		{Field: "interest_area", Equals: "smb", Destination: "smb-sales@example.com"},
	}
	if !reflect.DeepEqual(rl, want) {
		t.Fatalf("Decode() = %+v, want %+v", rl, want)
	}
}

func TestRuleListDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := []string{
		"interest_area=enterprise",
		"interest_area:enterprise-sales@example.com",
		"=x:dest@example.com",
		"interest_area=:dest@example.com",
		"interest_area=enterprise:",
	}
	for _, in := range cases {
		var rl RuleList
		if err := rl.Decode(in); err == nil {
			t.Fatalf("Decode(%q) error = nil, want error", in)
		}
	}
}

func TestRuleListDecodeEmpty(t *testing.T) {
	t.Parallel()

	var rl RuleList
	if err := rl.Decode("  "); err != nil {
		t.Fatalf("Decode(blank) error = %v", err)
	}
	if rl != nil {
		t.Fatalf("Decode(blank) = %+v, want nil", rl)
	}
}

func TestRuleMatchesCaseInsensitive(t *testing.T) {
	t.Parallel()

	rule := Rule{Field: leadx.FieldInterestArea, Equals: "enterprise", Destination: "x@example.com"}

	rec := leadx.NewRecord("sess-1", time.Now())
	rec.InterestArea = "Enterprise"
	if !rule.Matches(rec) {
		t.Fatal("Matches() = false for case-differing value")
	}

	rec.InterestArea = "smb"
	if rule.Matches(rec) {
		t.Fatal("Matches() = true for different value")
	}
	if rule.Matches(nil) {
		t.Fatal("Matches(nil) = true")
	}
}

func TestConfigDestinations(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Rules: RuleList{
			{Field: "interest_area", Equals: "enterprise", Destination: "enterprise-sales@example.com"},
			{Field: "interest_area", Equals: "smb", Destination: "smb-sales@example.com"},
			{Field: "interest_area", Equals: "individual", Destination: "sales@example.com"},
		},
		Default: "sales@example.com",
	}

	want := []string{"enterprise-sales@example.com", "smb-sales@example.com", "sales@example.com"}
	if got := cfg.Destinations(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Destinations() = %v, want %v", got, want)
	}
}
