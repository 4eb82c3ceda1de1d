package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdetail/internal/ics"
	"eventdetail/internal/link"
	"eventdetail/internal/model"
	"eventdetail/internal/visual"
)

func samplePage(mode visual.Mode, scroll float64) Page {
	ev := model.Event{
		Name:              "Ao Dai Fashion Show",
		Category:          "Fashion",
		EntranceFee:       "150.000 VND",
		Address:           "Nguyen Hue Walking Street",
		PopularActivities: []string{"Runway show", "Meet the designers"},
		Location:          model.Coordinates{Latitude: 10.7743, Longitude: 106.7038},
		YoutubeURL:        "https://www.youtube.com/watch?v=abc",
		Link:              "not a url",
	}
	return Page{
		Index: 4,
		Event: ev,
		State: visual.Derive(scroll, mode),
		Theme: ThemeLight,
		Links: link.Resolver{}.Affordances(ev),
	}
}

func render(t *testing.T, p Page) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, p))
	return buf.String()
}

func TestRenderDetailMode(t *testing.T) {
	out := render(t, samplePage(visual.ModeDetail, 0))

	assert.Contains(t, out, `data-ready="true"`)
	assert.Contains(t, out, `data-mode="detail"`)
	assert.Contains(t, out, `class="theme-light"`)
	assert.Contains(t, out, `class="map" style="opacity: 0"`)
	assert.Contains(t, out, `class="title" style="opacity: 1"`)
	assert.Contains(t, out, `margin-top: -90px`)
	assert.Contains(t, out, "Popular activities")
	assert.Contains(t, out, "Meet the designers")
	assert.Contains(t, out, "font-size: 23px")
}

func TestRenderMapModeHidesHeader(t *testing.T) {
	out := render(t, samplePage(visual.ModeMap, 30))

	assert.Contains(t, out, `data-mode="map"`)
	assert.Contains(t, out, `class="map" style="opacity: 1"`)
	assert.Contains(t, out, `class="title" style="opacity: 0"`)
	assert.Contains(t, out, `class="fee" style="opacity: 0"`)
	assert.Contains(t, out, `class="controls" method="get" style="opacity: 0.3"`)
	assert.Contains(t, out, `margin-top: -100px`)
}

func TestRenderUnclampedOpacity(t *testing.T) {
	out := render(t, samplePage(visual.ModeDetail, 600))
	assert.Contains(t, out, `class="fee" style="opacity: -5.4"`)
	assert.Contains(t, out, `margin-top: -200px`)
}

func TestRenderLinks(t *testing.T) {
	out := render(t, samplePage(visual.ModeDetail, 0))

	assert.Contains(t, out, `<a class="link-youtube" href="https://www.youtube.com/watch?v=abc"`)
	assert.Contains(t, out, `<span class="link-website disabled" aria-disabled="true">Website</span>`)
	assert.NotContains(t, out, "Add to calendar")
}

func TestRenderOptionalSections(t *testing.T) {
	p := samplePage(visual.ModeDetail, 0)
	p.Event.PopularActivities = nil
	p.Event.EntranceFee = "Free"
	p.CalendarURL = "/api/events/4/calendar.ics"
	p.Upcoming = []ics.Occurrence{{Start: time.Date(2023, 8, 20, 19, 0, 0, 0, time.UTC)}}

	out := render(t, p)
	assert.NotContains(t, out, "Popular activities")
	assert.Contains(t, out, "font-size: 30px")
	assert.Contains(t, out, `href="/api/events/4/calendar.ics"`)
	assert.Contains(t, out, "Sun, 20 Aug 2023 19:00")
}

func TestRenderEscapesContent(t *testing.T) {
	p := samplePage(visual.ModeDetail, 0)
	p.Event.Name = `<script>alert("x")</script>`
	out := render(t, p)
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderDefaultsTheme(t *testing.T) {
	p := samplePage(visual.ModeDetail, 0)
	p.Theme = ""
	assert.Contains(t, render(t, p), `class="theme-dark"`)
}

func TestParseTheme(t *testing.T) {
	assert.Equal(t, ThemeLight, ParseTheme("Light", ThemeDark))
	assert.Equal(t, ThemeDark, ParseTheme("dark", ThemeLight))
	assert.Equal(t, ThemeLight, ParseTheme("", ThemeLight))
	assert.Equal(t, ThemeDark, ParseTheme("sepia", ThemeDark))
}
