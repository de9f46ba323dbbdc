package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxTracksPresentValues(t *testing.T) {
	m := NewMinMax[float64](time.Hour)
	require.True(t, m.Put(at(0), 5))
	require.True(t, m.Put(at(time.Minute), -3))
	require.True(t, m.Put(at(2*time.Minute), 7))
	require.True(t, m.Put(at(3*time.Minute), -3))

	assert.InDelta(t, -3, m.MinAt(at(3*time.Minute)), 1e-9)
	assert.InDelta(t, 7, m.MaxAt(at(3*time.Minute)), 1e-9)
}

func TestMinMaxDuplicatesSurviveSingleEviction(t *testing.T) {
	m := NewMinMax[float64](time.Minute)
	require.True(t, m.Put(at(0), 9))
	require.True(t, m.Put(at(time.Second), 9))
	require.True(t, m.Put(at(2*time.Second), 1))

	// The first 9 expires but the second copy keeps 9 as the max.
	assert.InDelta(t, 9, m.MaxAt(at(61*time.Second)), 1e-9)

	// Both nines expire now; keep retains only the latest value.
	assert.InDelta(t, 1, m.MaxAt(at(2*time.Minute)), 1e-9)
	assert.InDelta(t, 1, m.MinAt(at(2*time.Minute)), 1e-9)
}

func TestMinMaxEmptyIsZero(t *testing.T) {
	m := NewMinMax[float64](time.Minute)
	assert.Zero(t, m.Max())
	assert.Zero(t, m.MinAt(at(0)))
}
