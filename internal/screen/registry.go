package screen

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown screen ID.
var ErrNotFound = errors.New("screen not found")

// Registry tracks live viewer screens in memory. Nothing is persisted; a
// restart forgets all screens.
type Registry struct {
	mu      sync.RWMutex
	screens map[string]*Screen
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		screens: make(map[string]*Screen),
		now:     time.Now,
	}
}

// Create registers a new detail-mode screen for the event at index and
// returns its ID.
func (r *Registry) Create(index int) (string, *Screen) {
	id := uuid.NewString()
	sc := newWithClock(index, r.now)

	r.mu.Lock()
	r.screens[id] = sc
	r.mu.Unlock()

	return id, sc
}

func (r *Registry) Get(id string) (*Screen, error) {
	r.mu.RLock()
	sc, ok := r.screens[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sc.Touch()
	return sc, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.screens[id]; !ok {
		return ErrNotFound
	}
	delete(r.screens, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.screens)
}

// PurgeIdle removes screens untouched for longer than maxIdle and returns
// how many were removed.
func (r *Registry) PurgeIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, sc := range r.screens {
		if sc.idleSince().Before(cutoff) {
			delete(r.screens, id)
			removed++
		}
	}
	return removed
}
