package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventdetail/internal/model"
)

// ErrNoSchedule is returned when an event has no machine readable schedule
// and therefore cannot be exported to a calendar.
var ErrNoSchedule = errors.New("event has no schedule")

const productID = "-//eventdetail//Event Detail//EN"

// uidNamespace scopes the name-based UUIDs used as VEVENT UIDs.
var uidNamespace = uuid.MustParse("6f1c7a2e-4b0d-5c8e-9a3f-2d7b1e0c4a58")

// ExportOptions carries the values of an export that do not come from the
// event itself.
type ExportOptions struct {
	// URL is the resolved website link, if any.
	URL string
	// Stamp is written as DTSTAMP. Zero means time.Now().
	Stamp time.Time
}

// UID returns the stable calendar UID of an event: a name-based UUID over
// the event name and start time, so re-exports update the same entry.
func UID(ev model.Event) string {
	key := ev.Name
	if ev.Schedule != nil {
		key += "|" + ev.Schedule.Start.UTC().Format(time.RFC3339)
	}
	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}

// Export renders ev as a VCALENDAR containing a single VEVENT.
func Export(ev model.Event, opts ExportOptions) ([]byte, error) {
	if ev.Schedule == nil || ev.Schedule.Start.IsZero() {
		return nil, ErrNoSchedule
	}
	sch := ev.Schedule
	if !sch.End.IsZero() && sch.End.Before(sch.Start) {
		return nil, fmt.Errorf("ics: schedule ends before it starts (%s < %s)", sch.End, sch.Start)
	}
	if sch.RRule != "" {
		if _, err := parseRule(sch.RRule, sch.Start); err != nil {
			return nil, err
		}
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	vev := cal.AddEvent(UID(ev))
	vev.SetDtStampTime(stamp.UTC())
	vev.SetStartAt(sch.Start)
	if !sch.End.IsZero() {
		vev.SetEndAt(sch.End)
	}
	vev.SetSummary(ev.Name)
	if desc := description(ev); desc != "" {
		vev.SetDescription(desc)
	}
	if ev.Address != "" {
		vev.SetLocation(ev.Address)
	}
	vev.SetProperty(ical.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", ev.Location.Latitude, ev.Location.Longitude))
	if ev.Category != "" {
		vev.SetProperty(ical.ComponentPropertyCategories, ev.Category)
	}
	if opts.URL != "" {
		vev.SetURL(opts.URL)
	}
	if sch.RRule != "" {
		vev.AddRrule(strings.TrimPrefix(sch.RRule, "RRULE:"))
	}

	return []byte(cal.Serialize()), nil
}

func description(ev model.Event) string {
	parts := make([]string, 0, 3)
	if ev.FullDescription != "" {
		parts = append(parts, ev.FullDescription)
	}
	if ev.OpeningHours != "" {
		parts = append(parts, "Opening hours: "+ev.OpeningHours)
	}
	if ev.EntranceFee != "" {
		parts = append(parts, "Entrance fee: "+ev.EntranceFee)
	}
	return strings.Join(parts, "\n\n")
}
