package mesher

import (
	"github.com/gammazero/deque"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
)

const (
	cells = core.SectionSize * core.SectionSize * core.SectionSize
	// below a full layer of opaque blocks no pair of faces can be separated
	minOpaqueForOcclusion = core.SectionSize * core.SectionSize
)

func cellIndex(x, y, z int) int {
	return x + z*core.SectionSize + y*core.SectionSize*core.SectionSize
}

// ComputeOcclusion flood fills the see-through cells of a section and connects every
// pair of faces touched by the same region.
func ComputeOcclusion(snap *world.Snapshot) core.VisibilityData {
	reg := snap.Registry

	var solid [cells]bool
	opaque := 0
	for y := 0; y < core.SectionSize; y++ {
		for z := 0; z < core.SectionSize; z++ {
			for x := 0; x < core.SectionSize; x++ {
				if reg.IsOpaque(snap.Block(x, y, z)) {
					solid[cellIndex(x, y, z)] = true
					opaque++
				}
			}
		}
	}

	if opaque < minOpaqueForOcclusion {
		return core.AllVisible
	}

	var (
		visited [cells]bool
		todo    deque.Deque[[3]int]
		result  core.VisibilityData
	)

	for start := 0; start < cells; start++ {
		if solid[start] || visited[start] {
			continue
		}

		visited[start] = true
		todo.PushBack([3]int{start % core.SectionSize, start / (core.SectionSize * core.SectionSize), (start / core.SectionSize) % core.SectionSize})
		var touched uint8

		for todo.Len() > 0 {
			p := todo.PopFront()
			touched |= boundaryFaces(p[0], p[1], p[2])

			for _, d := range core.AllDirections {
				o := d.Offset()
				nx, ny, nz := p[0]+int(o[0]), p[1]+int(o[1]), p[2]+int(o[2])
				if nx < 0 || ny < 0 || nz < 0 || nx >= core.SectionSize || ny >= core.SectionSize || nz >= core.SectionSize {
					continue
				}
				i := cellIndex(nx, ny, nz)
				if solid[i] || visited[i] {
					continue
				}
				visited[i] = true
				todo.PushBack([3]int{nx, ny, nz})
			}
		}

		result = result.ConnectAll(touched)
	}

	return result
}

func boundaryFaces(x, y, z int) uint8 {
	var faces uint8
	const last = core.SectionSize - 1
	if x == 0 {
		faces |= 1 << core.West
	} else if x == last {
		faces |= 1 << core.East
	}
	if y == 0 {
		faces |= 1 << core.Down
	} else if y == last {
		faces |= 1 << core.Up
	}
	if z == 0 {
		faces |= 1 << core.North
	} else if z == last {
		faces |= 1 << core.South
	}
	return faces
}
