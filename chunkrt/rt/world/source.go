// Package world stores block data and produces the read-only inputs of section builds.
package world

import (
	"sort"
	"sync"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
)

// Source is the block data a render manager reads.
type Source interface {
	IsSectionEmpty(pos core.SectionPos) bool
	Snapshot(pos core.SectionPos) *Snapshot
	IsOpaqueBlock(x, y, z int32) bool
}

const sectionVolume = core.SectionSize * core.SectionSize * core.SectionSize

type sectionData struct {
	blocks [sectionVolume]BlockID
	count  int
}

type columnData struct {
	sections [core.SectionsPerColumn]*sectionData
}

// MemoryWorld keeps columns of block data in memory.
type MemoryWorld struct {
	mu       sync.RWMutex
	registry *Registry
	columns  map[int64]*columnData
}

func NewMemoryWorld(reg *Registry) *MemoryWorld {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &MemoryWorld{
		registry: reg,
		columns:  make(map[int64]*columnData),
	}
}

func (w *MemoryWorld) Registry() *Registry {
	return w.registry
}

func localIndex(x, y, z int32) int {
	return int(x&15) + int(z&15)*core.SectionSize + int(y&15)*core.SectionSize*core.SectionSize
}

func (w *MemoryWorld) HasColumn(x, z int32) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.columns[core.ColumnPos{X: x, Z: z}.Pack()]
	return ok
}

// EnsureColumn creates an empty column if none is stored.
func (w *MemoryWorld) EnsureColumn(x, z int32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := core.ColumnPos{X: x, Z: z}.Pack()
	if _, ok := w.columns[key]; !ok {
		w.columns[key] = &columnData{}
	}
}

func (w *MemoryWorld) RemoveColumn(x, z int32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := core.ColumnPos{X: x, Z: z}.Pack()
	if _, ok := w.columns[key]; !ok {
		return false
	}
	delete(w.columns, key)
	return true
}

// Columns returns the stored column positions, sorted by X then Z.
func (w *MemoryWorld) Columns() []core.ColumnPos {
	w.mu.RLock()
	out := make([]core.ColumnPos, 0, len(w.columns))
	for k := range w.columns {
		out = append(out, core.UnpackColumnPos(k))
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

func (w *MemoryWorld) Block(x, y, z int32) BlockID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.blockLocked(x, y, z)
}

func (w *MemoryWorld) blockLocked(x, y, z int32) BlockID {
	if y < 0 || y >= core.WorldHeight {
		return Air
	}
	col, ok := w.columns[core.ColumnPos{X: x >> 4, Z: z >> 4}.Pack()]
	if !ok {
		return Air
	}
	s := col.sections[y>>4]
	if s == nil {
		return Air
	}
	return s.blocks[localIndex(x, y, z)]
}

// SetBlock stores a block and returns the sections whose geometry it affects: its own
// section plus any neighbour sharing the touched border.
func (w *MemoryWorld) SetBlock(x, y, z int32, id BlockID) []core.SectionPos {
	if y < 0 || y >= core.WorldHeight {
		return nil
	}

	w.mu.Lock()
	key := core.ColumnPos{X: x >> 4, Z: z >> 4}.Pack()
	col, ok := w.columns[key]
	if !ok {
		col = &columnData{}
		w.columns[key] = col
	}
	s := col.sections[y>>4]
	if s == nil {
		if id == Air {
			w.mu.Unlock()
			return nil
		}
		s = &sectionData{}
		col.sections[y>>4] = s
	}

	i := localIndex(x, y, z)
	prev := s.blocks[i]
	if prev == id {
		w.mu.Unlock()
		return nil
	}
	s.blocks[i] = id
	switch {
	case prev == Air:
		s.count++
	case id == Air:
		s.count--
	}
	w.mu.Unlock()

	pos := core.SectionPos{X: x >> 4, Y: y >> 4, Z: z >> 4}
	affected := []core.SectionPos{pos}
	lx, ly, lz := x&15, y&15, z&15
	add := func(d core.Direction) {
		if n := pos.Offset(d); n.InWorld() {
			affected = append(affected, n)
		}
	}
	if lx == 0 {
		add(core.West)
	} else if lx == 15 {
		add(core.East)
	}
	if ly == 0 {
		add(core.Down)
	} else if ly == 15 {
		add(core.Up)
	}
	if lz == 0 {
		add(core.North)
	} else if lz == 15 {
		add(core.South)
	}
	return affected
}

func (w *MemoryWorld) IsSectionEmpty(pos core.SectionPos) bool {
	if !pos.InWorld() {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	col, ok := w.columns[pos.Column().Pack()]
	if !ok {
		return true
	}
	s := col.sections[pos.Y]
	return s == nil || s.count == 0
}

func (w *MemoryWorld) IsOpaqueBlock(x, y, z int32) bool {
	return w.registry.IsOpaque(w.Block(x, y, z))
}

func (w *MemoryWorld) Snapshot(pos core.SectionPos) *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ox, oy, oz := pos.X*core.SectionSize, pos.Y*core.SectionSize, pos.Z*core.SectionSize
	return NewSnapshot(pos, w.registry, func(x, y, z int) BlockID {
		return w.blockLocked(ox+int32(x), oy+int32(y), oz+int32(z))
	})
}
