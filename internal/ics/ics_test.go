package ics

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdetail/internal/model"
)

var saigon = time.FixedZone("ICT", 7*60*60)

func cruise() model.Event {
	return model.Event{
		Name:            "Saigon River Sunset Cruise",
		Category:        "Sightseeing",
		FullDescription: "A two hour cruise.",
		OpeningHours:    "17:30 - 19:30",
		EntranceFee:     "450.000 VND",
		Address:         "Bach Dang Wharf",
		Location:        model.Coordinates{Latitude: 10.7746, Longitude: 106.7069},
		Schedule: &model.Schedule{
			Start: time.Date(2023, 7, 1, 17, 30, 0, 0, saigon),
			End:   time.Date(2023, 7, 1, 19, 30, 0, 0, saigon),
			RRule: "FREQ=WEEKLY;BYDAY=SA",
		},
	}
}

func TestExport(t *testing.T) {
	stamp := time.Date(2023, 7, 26, 0, 0, 0, 0, time.UTC)
	body, err := Export(cruise(), ExportOptions{URL: "https://www.saigonwaterbus.com/tour", Stamp: stamp})
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	ev := events[0]

	assert.Equal(t, UID(cruise()), ev.Id())
	assert.Equal(t, "Saigon River Sunset Cruise", ev.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "https://www.saigonwaterbus.com/tour", ev.GetProperty(ical.ComponentPropertyUrl).Value)
	assert.Contains(t, ev.GetProperty(ical.ComponentPropertyRrule).Value, "FREQ=WEEKLY")
	assert.Contains(t, ev.GetProperty(ical.ComponentPropertyGeo).Value, "10.774600")

	start, err := ev.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(cruise().Schedule.Start))
}

func TestExportWithoutSchedule(t *testing.T) {
	ev := cruise()
	ev.Schedule = nil
	_, err := Export(ev, ExportOptions{})
	assert.ErrorIs(t, err, ErrNoSchedule)
}

func TestExportRejectsBadSchedule(t *testing.T) {
	ev := cruise()
	ev.Schedule.End = ev.Schedule.Start.Add(-time.Hour)
	_, err := Export(ev, ExportOptions{})
	assert.Error(t, err)

	ev = cruise()
	ev.Schedule.RRule = "FREQ=SOMETIMES"
	_, err = Export(ev, ExportOptions{})
	assert.Error(t, err)
}

func TestUIDIsStable(t *testing.T) {
	assert.Equal(t, UID(cruise()), UID(cruise()))

	other := cruise()
	other.Name = "Another cruise"
	assert.NotEqual(t, UID(cruise()), UID(other))
}

func TestUpcomingWeekly(t *testing.T) {
	from := time.Date(2023, 8, 9, 12, 0, 0, 0, saigon) // Wednesday
	occ, err := Upcoming(cruise().Schedule, from, 3)
	require.NoError(t, err)
	require.Len(t, occ, 3)

	want := []time.Time{
		time.Date(2023, 8, 12, 17, 30, 0, 0, saigon),
		time.Date(2023, 8, 19, 17, 30, 0, 0, saigon),
		time.Date(2023, 8, 26, 17, 30, 0, 0, saigon),
	}
	for i, w := range want {
		assert.True(t, occ[i].Start.Equal(w), "occurrence %d: got %s want %s", i, occ[i].Start, w)
		assert.Equal(t, 2*time.Hour, occ[i].End.Sub(occ[i].Start))
	}
}

func TestUpcomingIncludesOccurrenceAtFrom(t *testing.T) {
	from := time.Date(2023, 8, 12, 17, 30, 0, 0, saigon)
	occ, err := Upcoming(cruise().Schedule, from, 1)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.True(t, occ[0].Start.Equal(from))
}

func TestUpcomingSingle(t *testing.T) {
	sch := &model.Schedule{
		Start: time.Date(2023, 8, 12, 17, 0, 0, 0, saigon),
		End:   time.Date(2023, 8, 12, 23, 30, 0, 0, saigon),
	}

	occ, err := Upcoming(sch, sch.Start.Add(-24*time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.True(t, occ[0].End.Equal(sch.End))

	occ, err = Upcoming(sch, sch.Start.Add(time.Minute), 5)
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestUpcomingEdgeCases(t *testing.T) {
	occ, err := Upcoming(nil, time.Now(), 3)
	assert.NoError(t, err)
	assert.Nil(t, occ)

	occ, err = Upcoming(cruise().Schedule, time.Now(), 0)
	assert.NoError(t, err)
	assert.Nil(t, occ)

	occ, err = Upcoming(cruise().Schedule, time.Now(), 1000)
	require.NoError(t, err)
	assert.Len(t, occ, maxUpcoming)

	bad := cruise().Schedule
	bad.RRule = "NOT A RULE"
	_, err = Upcoming(bad, time.Now(), 3)
	assert.Error(t, err)
}
