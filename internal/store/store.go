package store

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	appLog "eventdetail/internal/log"
	"eventdetail/internal/model"
)

// ErrOutOfRange is returned by Get for an index outside [0, Count()).
var ErrOutOfRange = errors.New("event index out of range")

//go:embed events.yaml
var embeddedEvents []byte

// Store is an ordered, read-only collection of events. It is safe for
// concurrent use without locking because nothing mutates it after New.
type Store struct {
	events []model.Event
}

// dataset is the on-disk YAML shape.
type dataset struct {
	Events []model.Event `yaml:"events"`
}

// New builds a store from a copy of events. Every event's location must be a
// valid coordinate pair.
func New(events []model.Event) (*Store, error) {
	out := make([]model.Event, 0, len(events))
	for i, ev := range events {
		if err := ev.Location.Validate(); err != nil {
			return nil, fmt.Errorf("event %d (%q): %w", i, ev.Name, err)
		}
		out = append(out, ev.Clone())
	}
	return &Store{events: out}, nil
}

// Load decodes a YAML dataset with a top-level `events:` list.
func Load(r io.Reader) (*Store, error) {
	var ds dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil)
		}
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return New(ds.Events)
}

// LoadFile loads a dataset from path.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Default returns the store built from the dataset compiled into the binary.
func Default() (*Store, error) {
	return Load(bytes.NewReader(embeddedEvents))
}

// Open returns LoadFile(path) when path is set, otherwise Default().
func Open(path string) (*Store, error) {
	if path == "" {
		s, err := Default()
		if err == nil {
			appLog.Info("events loaded", "source", "embedded", "count", s.Count())
		}
		return s, err
	}
	s, err := LoadFile(path)
	if err == nil {
		appLog.Info("events loaded", "source", path, "count", s.Count())
	}
	return s, err
}

func (s *Store) Count() int {
	return len(s.events)
}

// Get returns a copy of the event at index.
func (s *Store) Get(index int) (model.Event, error) {
	if index < 0 || index >= len(s.events) {
		return model.Event{}, fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(s.events))
	}
	return s.events[index].Clone(), nil
}

// All returns copies of every event in order.
func (s *Store) All() []model.Event {
	out := make([]model.Event, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Clone()
	}
	return out
}
