// Package render is the reference renderer of the event detail screen. It
// only paints what it is given: the event, the derived visual state and
// resolved link affordances. It never derives state itself.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"eventdetail/internal/ics"
	"eventdetail/internal/link"
	"eventdetail/internal/model"
	"eventdetail/internal/visual"
)

//go:embed templates/*.html
var templateFS embed.FS

// Theme selects the light or dark palette.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme accepts "dark" or "light"; anything else returns def.
func ParseTheme(s string, def Theme) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeDark:
		return ThemeDark
	case ThemeLight:
		return ThemeLight
	default:
		return def
	}
}

// Page is the complete input of one render.
type Page struct {
	Index    int
	Event    model.Event
	State    visual.State
	Theme    Theme
	Links    []link.Affordance
	Upcoming []ics.Occurrence
	// CalendarURL is the ICS export link; empty hides the affordance.
	CalendarURL string
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("detail.html").Funcs(template.FuncMap{
		"num":      formatNumber,
		"isMap":    func(m visual.Mode) bool { return m == visual.ModeMap },
		"feeSize":  feeSize,
		"linkText": linkText,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the HTML document for p.
func (r *Renderer) Render(w io.Writer, p Page) error {
	if p.Theme == "" {
		p.Theme = ThemeDark
	}
	return r.tmpl.ExecuteTemplate(w, "detail.html", p)
}

// formatNumber prints a CSS number without exponent notation.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// feeSize is the entrance fee font size in points: free events get the
// larger type.
func feeSize(ev model.Event) int {
	if ev.IsFree() {
		return 30
	}
	return 23
}

func linkText(k link.Kind) string {
	switch k {
	case link.KindYoutube:
		return "YouTube"
	case link.KindWebsite:
		return "Website"
	default:
		return string(k)
	}
}
