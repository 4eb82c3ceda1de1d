package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "eventdetail/internal/log"
	"eventdetail/internal/model"
)

// maxUpcoming caps how many occurrences Upcoming will ever compute.
const maxUpcoming = 52

// Occurrence is a single concrete instance of a scheduled event.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func parseRule(raw string, start time.Time) (*rrule.RRule, error) {
	r, err := rrule.StrToRRule(strings.TrimPrefix(raw, "RRULE:"))
	if err != nil {
		return nil, fmt.Errorf("ics: invalid rrule %q: %w", raw, err)
	}
	r.DTStart(start)
	return r, nil
}

// Upcoming returns up to n occurrences of sch starting at or after from.
// A schedule without a recurrence rule yields its single occurrence when it
// has not started yet.
func Upcoming(sch *model.Schedule, from time.Time, n int) ([]Occurrence, error) {
	if sch == nil || sch.Start.IsZero() || n <= 0 {
		return nil, nil
	}
	if n > maxUpcoming {
		n = maxUpcoming
	}

	dur := time.Duration(0)
	if !sch.End.IsZero() {
		dur = sch.End.Sub(sch.Start)
	}

	if sch.RRule == "" {
		if sch.Start.Before(from) {
			return nil, nil
		}
		return []Occurrence{{Start: sch.Start, End: sch.Start.Add(dur)}}, nil
	}

	r, err := parseRule(sch.RRule, sch.Start)
	if err != nil {
		appLog.Error("upcoming: failed to parse rrule", err, "rrule", sch.RRule)
		return nil, err
	}

	out := make([]Occurrence, 0, n)
	cursor := from.In(sch.Start.Location())
	inclusive := true
	for len(out) < n {
		next := r.After(cursor, inclusive)
		if next.IsZero() {
			break
		}
		out = append(out, Occurrence{Start: next, End: next.Add(dur)})
		cursor = next
		inclusive = false
	}
	return out, nil
}
