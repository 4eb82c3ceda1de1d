package screen

import (
	"sync"
	"time"

	"eventdetail/internal/visual"
)

// Screen is the per-viewer display state of one event detail screen: the
// mode flag and the last reported scroll offset.
//
// Writers (user input) and readers (renders) share one lock so that a
// Snapshot never mixes a mode from before a toggle with derived values from
// after it.
type Screen struct {
	index int

	mu       sync.RWMutex
	mode     visual.Mode
	scroll   float64
	lastSeen time.Time
	now      func() time.Time
}

// Snapshot is a consistent view of a Screen for one render.
type Snapshot struct {
	Index  int          `json:"index"`
	Mode   visual.Mode  `json:"mode"`
	Scroll float64      `json:"scroll_offset"`
	Visual visual.State `json:"visual"`
}

// New returns a screen for the event at index, in detail mode.
func New(index int) *Screen {
	return newWithClock(index, time.Now)
}

func newWithClock(index int, now func() time.Time) *Screen {
	return &Screen{
		index:    index,
		mode:     visual.ModeDetail,
		lastSeen: now(),
		now:      now,
	}
}

func (s *Screen) Index() int { return s.index }

// ActivateMap switches to map mode. Repeated calls are no-ops.
func (s *Screen) ActivateMap() {
	s.setMode(visual.ModeMap)
}

// DeactivateMap switches back to detail mode. Repeated calls are no-ops.
func (s *Screen) DeactivateMap() {
	s.setMode(visual.ModeDetail)
}

func (s *Screen) setMode(m visual.Mode) {
	s.mu.Lock()
	s.mode = m
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// SetScrollOffset records the scroll position reported by the renderer.
func (s *Screen) SetScrollOffset(offset float64) {
	s.mu.Lock()
	s.scroll = offset
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Screen) Mode() visual.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Snapshot reads mode and scroll together and derives the visual state.
func (s *Screen) Snapshot() Snapshot {
	s.mu.RLock()
	mode, scroll := s.mode, s.scroll
	s.mu.RUnlock()

	return Snapshot{
		Index:  s.index,
		Mode:   mode,
		Scroll: scroll,
		Visual: visual.Derive(scroll, mode),
	}
}

// Touch marks the screen as recently used.
func (s *Screen) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Screen) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
