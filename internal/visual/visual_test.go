package visual

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var offsets = []float64{-1000, -330, -1, -0.001, 0, 0.001, 1, 40, 60, 100, 330, 600, 1e6}

func TestHeaderOpacityNegativeScrollIsOpaque(t *testing.T) {
	for _, s := range offsets {
		if s < 0 {
			assert.Equal(t, 1.0, HeaderOpacity(s, ModeDetail), "s=%v", s)
		}
	}
}

func TestHeaderOpacityPositiveScrollIsUnclamped(t *testing.T) {
	for _, s := range offsets {
		if s > 0 {
			assert.InDelta(t, 0.6-s/100, HeaderOpacity(s, ModeDetail), 1e-12, "s=%v", s)
		}
	}
	assert.Less(t, HeaderOpacity(600, ModeDetail), 0.0)
	assert.InDelta(t, -5.4, HeaderOpacity(600, ModeDetail), 1e-12)
}

func TestHeaderOpacityAtRest(t *testing.T) {
	assert.Equal(t, 1.0, HeaderOpacity(0, ModeDetail))
}

func TestHeaderOpacityHiddenInMapMode(t *testing.T) {
	for _, s := range offsets {
		assert.Equal(t, 0.0, HeaderOpacity(s, ModeMap), "s=%v", s)
	}
}

func TestCalculateOpacity(t *testing.T) {
	assert.Equal(t, 1.0, CalculateOpacity(-5))
	assert.InDelta(t, 0.6, CalculateOpacity(0), 1e-12)
	assert.InDelta(t, 0.1, CalculateOpacity(50), 1e-12)
}

func TestControlsOpacityIgnoresMode(t *testing.T) {
	st := Derive(20, ModeMap)
	assert.InDelta(t, 0.4, st.ControlsOpacity, 1e-12)
	assert.Equal(t, 0.0, st.HeaderOpacity)
}

func TestContentOffset(t *testing.T) {
	assert.Equal(t, -90.0, ContentOffset(0))
	assert.Equal(t, -200.0, ContentOffset(330))
	assert.Equal(t, -200.0, ContentOffset(600))
	assert.InDelta(t, -100.0, ContentOffset(30), 1e-12)
	assert.InDelta(t, -80.0, ContentOffset(-30), 1e-12)

	for _, s := range offsets {
		assert.InDelta(t, math.Max(-90-s/3, -200), ContentOffset(s), 1e-9, "s=%v", s)
	}
}

func TestTitleAndMapOpacity(t *testing.T) {
	assert.Equal(t, 1.0, TitleOpacity(ModeDetail))
	assert.Equal(t, 0.0, TitleOpacity(ModeMap))
	assert.Equal(t, 0.0, MapOpacity(ModeDetail))
	assert.Equal(t, 1.0, MapOpacity(ModeMap))
}

func TestDerive(t *testing.T) {
	st := Derive(0, ModeDetail)
	assert.Equal(t, State{
		Mode:            ModeDetail,
		ScrollOffset:    0,
		HeaderOpacity:   1,
		TitleOpacity:    1,
		ControlsOpacity: 1,
		MapOpacity:      0,
		ContentOffset:   -90,
	}, st)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeDetail, false},
		{"detail", ModeDetail, false},
		{"MAP", ModeMap, false},
		{" map ", ModeMap, false},
		{"satellite", ModeDetail, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestModeJSON(t *testing.T) {
	b, err := json.Marshal(Derive(0, ModeMap))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"mode":"map"`)

	var st struct {
		Mode Mode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"map"}`), &st))
	assert.Equal(t, ModeMap, st.Mode)
	assert.Error(t, json.Unmarshal([]byte(`{"mode":"other"}`), &st))
}
