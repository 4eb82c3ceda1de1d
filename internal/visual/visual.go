// Package visual derives the presentational scalars of the event detail
// screen from the scroll offset and display mode. Every function here is
// pure.
package visual

import (
	"fmt"
	"strings"
)

// Mode is the display mode of the screen.
type Mode int

const (
	// ModeDetail shows event details over the header image. Initial mode.
	ModeDetail Mode = iota
	// ModeMap reveals the background map and hides header and title.
	ModeMap
)

func (m Mode) String() string {
	switch m {
	case ModeMap:
		return "map"
	default:
		return "detail"
	}
}

// ParseMode accepts "detail" or "map" in any case; empty means detail.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detail":
		return ModeDetail, nil
	case "map":
		return ModeMap, nil
	default:
		return ModeDetail, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

const (
	contentOffsetBase = -90.0
	contentOffsetMin  = -200.0
)

// CalculateOpacity fades the header as content scrolls up. It is not
// clamped: large offsets yield negative opacity.
func CalculateOpacity(s float64) float64 {
	if s < 0 {
		return 1
	}
	return 0.6 - s/100
}

// ControlsOpacity is the opacity of the detail/map toggle buttons. They
// follow the header fade but stay visible in map mode.
func ControlsOpacity(s float64) float64 {
	if s == 0 {
		return 1
	}
	return CalculateOpacity(s)
}

// HeaderOpacity is the opacity of the header image and entrance fee text.
func HeaderOpacity(s float64, mode Mode) float64 {
	if mode == ModeMap {
		return 0
	}
	return ControlsOpacity(s)
}

// ContentOffset is the top padding of the content panel. It compresses
// with scroll and stops at -200 once the header is out of view.
func ContentOffset(s float64) float64 {
	top := contentOffsetBase - s/3
	if top < contentOffsetMin {
		return contentOffsetMin
	}
	return top
}

// TitleOpacity hides the name/category block while the map is showing.
func TitleOpacity(mode Mode) float64 {
	if mode == ModeMap {
		return 0
	}
	return 1
}

// MapOpacity is the opacity of the background map layer.
func MapOpacity(mode Mode) float64 {
	if mode == ModeMap {
		return 1
	}
	return 0
}

// State is everything a renderer needs to paint one frame.
type State struct {
	Mode            Mode    `json:"mode"`
	ScrollOffset    float64 `json:"scroll_offset"`
	HeaderOpacity   float64 `json:"header_opacity"`
	TitleOpacity    float64 `json:"title_opacity"`
	ControlsOpacity float64 `json:"controls_opacity"`
	MapOpacity      float64 `json:"map_opacity"`
	ContentOffset   float64 `json:"content_offset"`
}

// Derive computes the State for one frame.
func Derive(s float64, mode Mode) State {
	return State{
		Mode:            mode,
		ScrollOffset:    s,
		HeaderOpacity:   HeaderOpacity(s, mode),
		TitleOpacity:    TitleOpacity(mode),
		ControlsOpacity: ControlsOpacity(s),
		MapOpacity:      MapOpacity(mode),
		ContentOffset:   ContentOffset(s),
	}
}
