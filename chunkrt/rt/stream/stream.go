// Package stream loads and unloads world columns around the camera.
package stream

import (
	"sort"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
	"github.com/go-gl/mathgl/mgl32"
)

// Target receives column lifecycle signals.
type Target interface {
	OnChunkAdded(x, z int32)
	OnChunkRemoved(x, z int32)
	ScheduleRebuild(x, y, z int32, important bool)
}

type Streamer struct {
	world  *world.MemoryWorld
	gen    *world.Generator
	target Target

	radius   int32
	perFrame int

	loaded    map[int64]core.ColumnPos
	candidate []core.ColumnPos
}

// New creates a streamer that keeps columns within radius of the camera loaded, adding at
// most perFrame per Update. A nil generator only streams columns already in the world.
func New(w *world.MemoryWorld, gen *world.Generator, target Target, radius int32, perFrame int) *Streamer {
	if perFrame < 1 {
		perFrame = 1
	}
	return &Streamer{
		world:    w,
		gen:      gen,
		target:   target,
		radius:   radius,
		perFrame: perFrame,
		loaded:   make(map[int64]core.ColumnPos),
	}
}

func (s *Streamer) SetRadius(r int32) { s.radius = r }
func (s *Streamer) Loaded() int       { return len(s.loaded) }

func (s *Streamer) IsLoaded(x, z int32) bool {
	_, ok := s.loaded[core.ColumnPos{X: x, Z: z}.Pack()]
	return ok
}

// Update unloads columns that left the radius (with one column of slack) and loads the
// closest missing ones.
func (s *Streamer) Update(camera mgl32.Vec3) (added, removed int) {
	c := core.SectionPosAt(camera).Column()

	for key, p := range s.loaded {
		if chebyshev(p, c) > s.radius+1 {
			delete(s.loaded, key)
			s.target.OnChunkRemoved(p.X, p.Z)
			removed++
		}
	}

	s.candidate = s.candidate[:0]
	for x := c.X - s.radius; x <= c.X+s.radius; x++ {
		for z := c.Z - s.radius; z <= c.Z+s.radius; z++ {
			p := core.ColumnPos{X: x, Z: z}
			if _, ok := s.loaded[p.Pack()]; ok {
				continue
			}
			if s.gen == nil && !s.world.HasColumn(x, z) {
				continue
			}
			s.candidate = append(s.candidate, p)
		}
	}

	sort.SliceStable(s.candidate, func(i, j int) bool {
		return squaredDistance(s.candidate[i], c) < squaredDistance(s.candidate[j], c)
	})

	for _, p := range s.candidate {
		if added >= s.perFrame {
			break
		}
		if !s.world.HasColumn(p.X, p.Z) {
			s.gen.GenerateColumn(s.world, p.X, p.Z)
		}
		s.loaded[p.Pack()] = p
		s.target.OnChunkAdded(p.X, p.Z)
		s.refreshNeighbors(p)
		added++
	}
	return added, removed
}

// refreshNeighbors rebuilds the sections next to a new column so faces along the shared
// border are culled against it.
func (s *Streamer) refreshNeighbors(p core.ColumnPos) {
	for _, d := range core.HorizontalDirections {
		n := p.Offset(d)
		if _, ok := s.loaded[n.Pack()]; !ok {
			continue
		}
		for y := int32(0); y < core.SectionsPerColumn; y++ {
			if !s.world.IsSectionEmpty(n.Section(y)) {
				s.target.ScheduleRebuild(n.X, y, n.Z, false)
			}
		}
	}
}

func chebyshev(a, b core.ColumnPos) int32 {
	dx, dz := a.X-b.X, a.Z-b.Z
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	return max(dx, dz)
}

func squaredDistance(a, b core.ColumnPos) int32 {
	dx, dz := a.X-b.X, a.Z-b.Z
	return dx*dx + dz*dz
}
