// Package lists holds the per-pass draw lists assembled during the visibility walk.
package lists

import "github.com/gekko3d/chunks/chunkrt/rt/core"

type entry struct {
	state core.GraphicsState
	faces uint8
}

// List is one pass worth of (graphics state, visible faces) pairs in admission order.
type List struct {
	entries []entry
}

func NewList(capacity int) *List {
	return &List{entries: make([]entry, 0, capacity)}
}

func (l *List) Add(state core.GraphicsState, faces uint8) {
	l.entries = append(l.entries, entry{state: state, faces: faces})
}

func (l *List) Reset() {
	for i := range l.entries {
		l.entries[i] = entry{}
	}
	l.entries = l.entries[:0]
}

func (l *List) Len() int {
	return len(l.entries)
}

func (l *List) IsEmpty() bool {
	return len(l.entries) == 0
}

// Iterator walks the list, back to front when reverse is set.
func (l *List) Iterator(reverse bool) *Iterator {
	it := &Iterator{entries: l.entries, reverse: reverse, pos: -1}
	if reverse {
		it.pos = len(l.entries)
	}
	return it
}

type Iterator struct {
	entries []entry
	reverse bool
	pos     int
}

func (it *Iterator) Next() bool {
	if it.reverse {
		it.pos--
		return it.pos >= 0
	}
	it.pos++
	return it.pos < len(it.entries)
}

func (it *Iterator) State() core.GraphicsState {
	return it.entries[it.pos].state
}

func (it *Iterator) Faces() uint8 {
	return it.entries[it.pos].faces
}

// Set is one list per pass.
type Set [core.PassCount]*List

func NewSet(capacity int) *Set {
	var s Set
	for i := range s {
		s[i] = NewList(capacity)
	}
	return &s
}

func (s *Set) Get(pass core.BlockRenderPass) *List {
	return s[pass]
}

func (s *Set) Reset() {
	for _, l := range s {
		l.Reset()
	}
}
