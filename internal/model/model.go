package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCoordinates is returned when a latitude/longitude pair falls
// outside [-90,90] x [-180,180].
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is a WGS84 latitude/longitude pair.
//
// In the YAML dataset a location is written as a two element list
// `[lat, lon]`; JSON uses an object with named fields.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fmt.Errorf("%w: NaN in (%v, %v)", ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of [-90,90]", ErrInvalidCoordinates, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of [-180,180]", ErrInvalidCoordinates, c.Longitude)
	}
	return nil
}

// UnmarshalYAML accepts either `[lat, lon]` or a mapping with
// latitude/longitude keys.
func (c *Coordinates) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("%w: location needs 2 values, got %d", ErrInvalidCoordinates, len(pair))
		}
		c.Latitude, c.Longitude = pair[0], pair[1]
		return nil
	}

	var m struct {
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
	}
	if err := node.Decode(&m); err != nil {
		return err
	}
	c.Latitude, c.Longitude = m.Latitude, m.Longitude
	return nil
}

// Schedule is the optional machine readable timing of an event. Date and
// OpeningHours on Event stay free text for display.
type Schedule struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
	// RRule is an RFC 5545 recurrence rule without the "RRULE:" prefix,
	// e.g. "FREQ=WEEKLY;BYDAY=SA".
	RRule string `yaml:"rrule,omitempty" json:"rrule,omitempty"`
}

// Event describes one discoverable activity or venue. Values are treated as
// immutable once loaded into a store.
type Event struct {
	Name            string      `yaml:"name" json:"name"`
	Category        string      `yaml:"category" json:"category"`
	FullDescription string      `yaml:"full_description" json:"full_description"`
	Reason          string      `yaml:"reason" json:"reason"`
	Location        Coordinates `yaml:"location" json:"location"`

	Date         string `yaml:"date" json:"date"`
	OpeningHours string `yaml:"opening_hours" json:"opening_hours"`
	EntranceFee  string `yaml:"entrance_fee" json:"entrance_fee"`
	Address      string `yaml:"address" json:"address"`

	PopularActivities []string `yaml:"popular_activities" json:"popular_activities"`

	// ImageURL and HostURL are asset identifiers resolved by the renderer.
	ImageURL string `yaml:"image_url" json:"image_url"`
	HostURL  string `yaml:"host_url" json:"host_url"`

	// Raw, possibly unencoded; see internal/link.
	YoutubeURL string `yaml:"youtube_url" json:"youtube_url"`
	Link       string `yaml:"link" json:"link"`

	Schedule *Schedule `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// IsFree reports whether the entrance fee is the literal "Free".
func (e Event) IsFree() bool {
	return e.EntranceFee == "Free"
}

// Clone returns a deep copy so that callers cannot alias slices or the
// schedule held by a store.
func (e Event) Clone() Event {
	out := e
	if e.PopularActivities != nil {
		out.PopularActivities = append([]string(nil), e.PopularActivities...)
	}
	if e.Schedule != nil {
		s := *e.Schedule
		out.Schedule = &s
	}
	return out
}
