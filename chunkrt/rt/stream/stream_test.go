package stream

import (
	"testing"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	added    []core.ColumnPos
	removed  []core.ColumnPos
	rebuilds []core.SectionPos
}

func (f *fakeTarget) OnChunkAdded(x, z int32)   { f.added = append(f.added, core.ColumnPos{X: x, Z: z}) }
func (f *fakeTarget) OnChunkRemoved(x, z int32) { f.removed = append(f.removed, core.ColumnPos{X: x, Z: z}) }

func (f *fakeTarget) ScheduleRebuild(x, y, z int32, important bool) {
	f.rebuilds = append(f.rebuilds, core.SectionPos{X: x, Y: y, Z: z})
}

func newStreamer(t *testing.T, radius int32, perFrame int) (*Streamer, *fakeTarget, *world.MemoryWorld) {
	t.Helper()
	w := world.NewMemoryWorld(nil)
	gen, err := world.NewGenerator(w.Registry(), 3)
	require.NoError(t, err)
	target := &fakeTarget{}
	return New(w, gen, target, radius, perFrame), target, w
}

func TestLoadsClosestFirst(t *testing.T) {
	s, target, w := newStreamer(t, 1, 100)

	added, removed := s.Update(mgl32.Vec3{8, 100, 8})
	assert.Equal(t, 9, added)
	assert.Zero(t, removed)
	require.Len(t, target.added, 9)
	assert.Equal(t, core.ColumnPos{}, target.added[0])
	for _, p := range target.added[1:5] {
		assert.Equal(t, int32(1), squaredDistance(p, core.ColumnPos{}), "%v", p)
	}
	assert.True(t, w.HasColumn(1, 1))
	assert.True(t, s.IsLoaded(-1, -1))
	assert.NotEmpty(t, target.rebuilds, "border sections of earlier columns are refreshed")

	added, _ = s.Update(mgl32.Vec3{8, 100, 8})
	assert.Zero(t, added, "nothing new to load")
}

func TestPerFrameLimit(t *testing.T) {
	s, target, _ := newStreamer(t, 2, 3)

	added, _ := s.Update(mgl32.Vec3{})
	assert.Equal(t, 3, added)
	assert.Equal(t, 3, s.Loaded())
	assert.Equal(t, core.ColumnPos{}, target.added[0])

	for i := 0; i < 10; i++ {
		s.Update(mgl32.Vec3{})
	}
	assert.Equal(t, 25, s.Loaded())
}

func TestUnloadsWithSlack(t *testing.T) {
	s, target, w := newStreamer(t, 1, 100)
	s.Update(mgl32.Vec3{8, 100, 8})

	// one column east: old west edge is still within radius+1
	_, removed := s.Update(mgl32.Vec3{24, 100, 8})
	assert.Zero(t, removed)

	_, removed = s.Update(mgl32.Vec3{16*5 + 8, 100, 8})
	assert.Equal(t, 12, removed)
	assert.Len(t, target.removed, 12)
	assert.Equal(t, 9, s.Loaded())
	assert.True(t, w.HasColumn(0, 0), "world data outlives the render column")
}

func TestWithoutGenerator(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	w.EnsureColumn(0, 0)
	w.EnsureColumn(3, 3)
	target := &fakeTarget{}
	s := New(w, nil, target, 2, 0)

	added, _ := s.Update(mgl32.Vec3{8, 8, 8})
	assert.Equal(t, 1, added)
	assert.Equal(t, []core.ColumnPos{{}}, target.added)
	assert.Empty(t, target.rebuilds)
}
