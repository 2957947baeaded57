package world

import "github.com/gekko3d/chunks/chunkrt/rt/core"

// SnapshotSize is the edge of a snapshot: a section plus one block of border on each side.
const SnapshotSize = core.SectionSize + 2

// Snapshot is a read-only copy of the blocks a section build needs. It is safe to hand
// to another goroutine.
type Snapshot struct {
	Pos      core.SectionPos
	Registry *Registry
	blocks   [SnapshotSize * SnapshotSize * SnapshotSize]BlockID
}

func snapshotIndex(x, y, z int) int {
	return (x + 1) + (z+1)*SnapshotSize + (y+1)*SnapshotSize*SnapshotSize
}

// Block takes section-local coordinates in [-1, 16].
func (s *Snapshot) Block(x, y, z int) BlockID {
	if x < -1 || y < -1 || z < -1 || x > core.SectionSize || y > core.SectionSize || z > core.SectionSize {
		return Air
	}
	return s.blocks[snapshotIndex(x, y, z)]
}

func (s *Snapshot) set(x, y, z int, id BlockID) {
	s.blocks[snapshotIndex(x, y, z)] = id
}

// NewSnapshot builds a snapshot by sampling fn in section-local coordinates.
func NewSnapshot(pos core.SectionPos, reg *Registry, fn func(x, y, z int) BlockID) *Snapshot {
	s := &Snapshot{Pos: pos, Registry: reg}
	for y := -1; y <= core.SectionSize; y++ {
		for z := -1; z <= core.SectionSize; z++ {
			for x := -1; x <= core.SectionSize; x++ {
				s.set(x, y, z, fn(x, y, z))
			}
		}
	}
	return s
}
