package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramesSplitsOnTerminator(t *testing.T) {
	f := NewFrames(0x00, 0)
	var got []string
	err := f.Feed([]byte("abc\x00de"), func(frame []byte) bool {
		got = append(got, string(frame))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)
	assert.Equal(t, 2, f.Pending())

	err = f.Feed([]byte("f\x00\x00"), func(frame []byte) bool {
		got = append(got, string(frame))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", ""}, got)
	assert.Equal(t, 0, f.Pending())
}

func TestFramesStopEarlyKeepsRest(t *testing.T) {
	f := NewFrames(0x00, 0)
	var got []string
	err := f.Feed([]byte("a\x00b\x00"), func(frame []byte) bool {
		got = append(got, string(frame))
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	err = f.Feed(nil, func(frame []byte) bool {
		got = append(got, string(frame))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFramesOversize(t *testing.T) {
	f := NewFrames(0x00, 4)
	err := f.Feed([]byte("12345"), func([]byte) bool { return true })
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestCutByte(t *testing.T) {
	before, after, found := CutByte([]byte("key=value"), '=')
	require.True(t, found)
	assert.Equal(t, "key", string(before))
	assert.Equal(t, "value", string(after))

	before, _, found = CutByte([]byte("keyless"), '=')
	assert.False(t, found)
	assert.Equal(t, "keyless", string(before))
}
