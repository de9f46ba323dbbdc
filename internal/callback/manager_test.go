package callback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutRunsInRegistrationOrder(t *testing.T) {
	m := NewManager[Void, int]()
	var got []string
	m.Register(Void{}, func(int) error { got = append(got, "a"); return nil })
	m.Register(Void{}, func(int) error { got = append(got, "b"); return nil })
	m.Register(Void{}, func(int) error { got = append(got, "c"); return nil })

	m.Fanout(Void{}, 0, nil)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestFanoutStopsWhenToldTo(t *testing.T) {
	m := NewManager[Void, int]()
	boom := errors.New("boom")
	var got []string
	m.Register(Void{}, func(int) error { got = append(got, "a"); return nil })
	m.Register(Void{}, func(int) error { got = append(got, "b"); return boom })
	m.Register(Void{}, func(int) error { got = append(got, "c"); return nil })

	var seen error
	m.Fanout(Void{}, 0, func(err error) bool {
		if err != nil {
			seen = err
			return false
		}
		return true
	})
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, boom, seen)
}

func TestClosedHandleIsSkippedAndPruned(t *testing.T) {
	m := NewManager[Void, int]()
	calls := 0
	h := m.Register(Void{}, func(int) error { calls++; return nil })
	m.Register(Void{}, func(int) error { return nil })

	h.Close()
	m.Fanout(Void{}, 0, nil)
	assert.Zero(t, calls)
	assert.Equal(t, 1, m.Len(Void{}))

	// Closing twice is harmless; so is a nil handle.
	h.Close()
	var nilHandle *Handle[int]
	nilHandle.Close()
}

func TestKeyedGroupsAreIndependent(t *testing.T) {
	m := NewManager[string, string]()
	var got []string
	m.Register("Quote", func(v string) error { got = append(got, "q:"+v); return nil })
	m.Register("Trade", func(v string) error { got = append(got, "t:"+v); return nil })

	m.Fanout("Quote", "x", nil)
	m.Fanout("Unknown", "y", nil)
	assert.Equal(t, []string{"q:x"}, got)
}
