package extract

import (
	"strings"
	"time"

	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

// Contact fields keep the longer, more specific value; a fresh extraction of
// "Jane" never clobbers a stored "Jane Smith". Signal fields always take the
// latest non-empty reading so a visitor can change segment mid-conversation.
var contactFields = map[string]struct{}{
	leadx.FieldName:    {},
	leadx.FieldEmail:   {},
	leadx.FieldCompany: {},
	leadx.FieldPhone:   {},
}

// Merge folds one extraction pass into rec. A non-empty stored value is
// never replaced by an empty one. Returns the names of the fields that
// changed and re-evaluates the status under pol; the status itself only
// moves forward.
func Merge(rec *leadx.Record, f leadx.Fields, pol QualificationPolicy, now time.Time) []string {
	if rec == nil {
		return nil
	}

	var changed []string
	for _, name := range leadx.ExtractableFields {
		next := strings.TrimSpace(f.Get(name))
		if next == "" {
			continue
		}
		cur := rec.Field(name)
		if next == cur {
			continue
		}
		if _, contact := contactFields[name]; contact && cur != "" && len(next) <= len(cur) {
			continue
		}
		rec.SetField(name, next)
		changed = append(changed, name)
	}

	if len(changed) > 0 {
		rec.UpdatedAt = now.UTC()
	}
	rec.Advance(pol.Evaluate(rec))
	return changed
}
