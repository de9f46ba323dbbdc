package message

import (
	"sort"
)

// Attr is a single key/value attribute. A keyless attribute has an empty
// Value and HasValue false is not tracked separately: the kind tag is the
// only conventional keyless attribute and lives at index 0.
type Attr struct {
	Key   string
	Value string
}

// Attrs is an ordered attribute list.
type Attrs []Attr

// Message is a kind-tagged attribute list. The first attribute carries the
// message kind in its Key; the tail is kept sorted by key so lookups are a
// binary search. The tag is never searched as a data attribute.
type Message struct {
	attrs Attrs
}

// New builds a message from raw attributes, sorting the tail in place.
func New(attrs Attrs) *Message {
	if len(attrs) == 0 {
		attrs = Attrs{{}}
	} else {
		tail := attrs[1:]
		sort.Slice(tail, func(i, j int) bool {
			return tail[i].Key < tail[j].Key
		})
	}
	return &Message{attrs: attrs}
}

// Kind returns the message kind tag.
func (m *Message) Kind() string {
	return m.attrs[0].Key
}

// Attrs returns the message attributes: the tag first, the tail sorted.
func (m *Message) Attrs() Attrs {
	return m.attrs
}

// Len returns the attribute count including the tag.
func (m *Message) Len() int {
	return len(m.attrs)
}

// Get looks up a data attribute by key.
func (m *Message) Get(key string) (string, bool) {
	tail := m.attrs[1:]
	i := sort.Search(len(tail), func(i int) bool {
		return tail[i].Key >= key
	})
	if i < len(tail) && tail[i].Key == key {
		return tail[i].Value, true
	}
	return "", false
}
