// Package lead holds the structured lead record assembled over a
// conversation, its qualification status machine, and the persistent stores
// that keep records and routing decisions across restarts.
package lead

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Status is the lead qualification stage. It only ever moves forward.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusPartial   Status = "PARTIAL"
	StatusQualified Status = "QUALIFIED"
	StatusRouted    Status = "ROUTED"
)

var statusRank = map[Status]int{
	StatusNew:       0,
	StatusPartial:   1,
	StatusQualified: 2,
	StatusRouted:    3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AtLeast reports whether s has reached other in the NEW to ROUTED order.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

// Field names shared by the extractor, the merge step, and routing rules.
const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldCompany       = "company"
	FieldPhone         = "phone"
	FieldInterestArea  = "interest_area"
	FieldBudgetSignal  = "budget_signal"
	FieldUrgencySignal = "urgency_signal"
)

// ExtractableFields lists every field the extractor can produce, in the
// order Merge visits them.
var ExtractableFields = []string{
	FieldName,
	FieldEmail,
	FieldCompany,
	FieldPhone,
	FieldInterestArea,
	FieldBudgetSignal,
	FieldUrgencySignal,
}

// Record is one session's lead, built up a field at a time. Empty strings
// mean "not captured yet"; the merge step never writes an empty value over
// a filled one.
type Record struct {
	bun.BaseModel `bun:"table:leads,alias:l"`

	SessionID     string    `bun:"session_id,pk" json:"session_id"`
	Name          string    `bun:"name,notnull,default:''" json:"name,omitempty"`
	Email         string    `bun:"email,notnull,default:''" json:"email,omitempty"`
	Company       string    `bun:"company,notnull,default:''" json:"company,omitempty"`
	Phone         string    `bun:"phone,notnull,default:''" json:"phone,omitempty"`
	InterestArea  string    `bun:"interest_area,notnull,default:''" json:"interest_area,omitempty"`
	BudgetSignal  string    `bun:"budget_signal,notnull,default:''" json:"budget_signal,omitempty"`
	UrgencySignal string    `bun:"urgency_signal,notnull,default:''" json:"urgency_signal,omitempty"`
	Status        Status    `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

func NewRecord(sessionID string, now time.Time) *Record {
	return &Record{
		SessionID: sessionID,
		Status:    StatusNew,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Advance moves the status forward and reports whether it changed.
// Regressions are ignored so ROUTED never falls back to QUALIFIED.
func (r *Record) Advance(next Status) bool {
	if r == nil || !next.Valid() {
		return false
	}
	if statusRank[next] <= statusRank[r.Status] {
		return false
	}
	r.Status = next
	return true
}

// Field returns a field value by its wire name. Unknown names yield "".
func (r *Record) Field(name string) string {
	if r == nil {
		return ""
	}
	switch name {
	case FieldName:
		return r.Name
	case FieldEmail:
		return r.Email
	case FieldCompany:
		return r.Company
	case FieldPhone:
		return r.Phone
	case FieldInterestArea:
		return r.InterestArea
	case FieldBudgetSignal:
		return r.BudgetSignal
	case FieldUrgencySignal:
		return r.UrgencySignal
	}
	return ""
}

// SetField writes a field by its wire name and reports whether the name was
// known.
func (r *Record) SetField(name, value string) bool {
	if r == nil {
		return false
	}
	switch name {
	case FieldName:
		r.Name = value
	case FieldEmail:
		r.Email = value
	case FieldCompany:
		r.Company = value
	case FieldPhone:
		r.Phone = value
	case FieldInterestArea:
		r.InterestArea = value
	case FieldBudgetSignal:
		r.BudgetSignal = value
	case FieldUrgencySignal:
		r.UrgencySignal = value
	default:
		return false
	}
	return true
}

// HasAny reports whether at least one extractable field is filled.
func (r *Record) HasAny() bool {
	if r == nil {
		return false
	}
	for _, name := range ExtractableFields {
		if strings.TrimSpace(r.Field(name)) != "" {
			return true
		}
	}
	return false
}

// Clone returns a copy so callers can hand records across goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// Summary renders the record as the plain-text body of a notification mail.
func (r *Record) Summary() string {
	var b strings.Builder
	write := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	write("Session", r.SessionID)
	write("Name", r.Name)
	write("Company", r.Company)
	write("Email", r.Email)
	write("Phone", r.Phone)
	write("Interest", r.InterestArea)
	write("Budget", r.BudgetSignal)
	write("Urgency", r.UrgencySignal)
	write("Status", string(r.Status))
	return b.String()
}

// Fields is one extraction pass over a single message. Empty strings mean
// "not found in this message".
type Fields struct {
	Name          string
	Email         string
	Company       string
	Phone         string
	InterestArea  string
	BudgetSignal  string
	UrgencySignal string
}

func (f Fields) Get(name string) string {
	switch name {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldCompany:
		return f.Company
	case FieldPhone:
		return f.Phone
	case FieldInterestArea:
		return f.InterestArea
	case FieldBudgetSignal:
		return f.BudgetSignal
	case FieldUrgencySignal:
		return f.UrgencySignal
	}
	return ""
}

func (f Fields) Empty() bool {
	for _, name := range ExtractableFields {
		if strings.TrimSpace(f.Get(name)) != "" {
			return false
		}
	}
	return true
}
