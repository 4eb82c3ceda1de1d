package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdetail/internal/model"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{Name: "First", Location: model.Coordinates{Latitude: 10.7, Longitude: 106.7}, PopularActivities: []string{"a", "b"}},
		{Name: "Second", Location: model.Coordinates{Latitude: -33.8, Longitude: 151.2}},
	}
}

func TestGetBounds(t *testing.T) {
	s, err := New(sampleEvents())
	require.NoError(t, err)
	require.Equal(t, 2, s.Count())

	ev, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "First", ev.Name)

	_, err = s.Get(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = s.Get(s.Count())
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestEmptyStore(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())

	_, err = s.Get(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Empty(t, s.All())
}

func TestNewCopiesInput(t *testing.T) {
	in := sampleEvents()
	s, err := New(in)
	require.NoError(t, err)

	in[0].Name = "mutated"
	in[0].PopularActivities[0] = "mutated"

	ev, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "First", ev.Name)
	assert.Equal(t, []string{"a", "b"}, ev.PopularActivities)
}

func TestGetReturnsCopy(t *testing.T) {
	s, err := New(sampleEvents())
	require.NoError(t, err)

	ev, _ := s.Get(0)
	ev.PopularActivities[1] = "changed"

	again, _ := s.Get(0)
	assert.Equal(t, "b", again.PopularActivities[1])
}

func TestNewRejectsInvalidLocation(t *testing.T) {
	_, err := New([]model.Event{{Name: "Nowhere", Location: model.Coordinates{Latitude: 120}}})
	assert.ErrorIs(t, err, model.ErrInvalidCoordinates)
}

func TestLoadRejectsNaNLocation(t *testing.T) {
	_, err := Load(strings.NewReader("events:\n  - name: x\n    location: [.nan, 106.7]\n"))
	assert.ErrorIs(t, err, model.ErrInvalidCoordinates)
}

func TestDefaultDataset(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	require.Positive(t, s.Count())

	for i, ev := range s.All() {
		assert.NotEmpty(t, ev.Name, "event %d", i)
		assert.NoError(t, ev.Location.Validate(), "event %d", i)
	}

	first, err := s.Get(0)
	require.NoError(t, err)
	require.NotNil(t, first.Schedule)
	assert.Equal(t, 17, first.Schedule.Start.Hour())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("events:\n  - name: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadEmptyDocument(t *testing.T) {
	s, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	body := "events:\n  - name: Local\n    location: [1, 2]\n    popular_activities: [x]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 1, s.Count())

	ev, _ := s.Get(0)
	assert.Equal(t, "Local", ev.Name)
	assert.Equal(t, model.Coordinates{Latitude: 1, Longitude: 2}, ev.Location)

	_, err = Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConcurrentReads(t *testing.T) {
	s, err := New(sampleEvents())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev, err := s.Get(i % s.Count())
			assert.NoError(t, err)
			assert.NotEmpty(t, ev.Name)
		}(i)
	}
	wg.Wait()
}
