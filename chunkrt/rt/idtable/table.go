// Package idtable is a dense slot allocator mapping small integer ids to values.
package idtable

import "sort"

// Table hands out the lowest free id on every Add. Ids are valid only while mapped;
// a removed id is reused by a later Add.
type Table[T any] struct {
	values []T
	live   []bool
	free   []int // descending, so the lowest id is at the end
	count  int
}

func New[T any](capacity int) *Table[T] {
	return &Table[T]{
		values: make([]T, 0, capacity),
		live:   make([]bool, 0, capacity),
	}
}

func (t *Table[T]) Add(v T) int {
	var id int
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = len(t.values)
		var zero T
		t.values = append(t.values, zero)
		t.live = append(t.live, false)
	}

	t.values[id] = v
	t.live[id] = true
	t.count++
	return id
}

// Remove frees id and returns the value it mapped to.
func (t *Table[T]) Remove(id int) (T, bool) {
	var zero T
	if !t.Contains(id) {
		return zero, false
	}

	v := t.values[id]
	t.values[id] = zero
	t.live[id] = false
	t.count--

	if id == len(t.values)-1 {
		t.trim()
	} else {
		i := sort.Search(len(t.free), func(i int) bool { return t.free[i] < id })
		t.free = append(t.free, 0)
		copy(t.free[i+1:], t.free[i:])
		t.free[i] = id
	}

	return v, true
}

// trim drops dead slots from the tail so the table shrinks back to its live extent.
func (t *Table[T]) trim() {
	n := len(t.values)
	for n > 0 && !t.live[n-1] {
		n--
	}
	t.values = t.values[:n]
	t.live = t.live[:n]

	// Free ids are sorted descending; ids >= n sit at the front.
	i := 0
	for i < len(t.free) && t.free[i] >= n {
		i++
	}
	t.free = t.free[i:]
}

func (t *Table[T]) Get(id int) (T, bool) {
	if !t.Contains(id) {
		var zero T
		return zero, false
	}
	return t.values[id], true
}

func (t *Table[T]) Contains(id int) bool {
	return id >= 0 && id < len(t.live) && t.live[id]
}

// Len is the number of live ids.
func (t *Table[T]) Len() int {
	return t.count
}

// Cap is the extent of the id space currently in use.
func (t *Table[T]) Cap() int {
	return len(t.values)
}

// Each visits live entries in id order.
func (t *Table[T]) Each(fn func(id int, v T)) {
	for id, ok := range t.live {
		if ok {
			fn(id, t.values[id])
		}
	}
}

func (t *Table[T]) Clear() {
	t.values = t.values[:0]
	t.live = t.live[:0]
	t.free = t.free[:0]
	t.count = 0
}
