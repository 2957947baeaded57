package cull

import (
	"testing"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadGrid(c *GraphCuller, radius int32, layers int32) map[int]core.SectionPos {
	ids := map[int]core.SectionPos{}
	id := 0
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			for y := int32(0); y < layers; y++ {
				c.OnSectionLoaded(x, y, z, id)
				ids[id] = core.SectionPos{X: x, Y: y, Z: z}
				id++
			}
		}
	}
	return ids
}

func loadLine(c *GraphCuller, n int32) {
	for x := int32(0); x < n; x++ {
		c.OnSectionLoaded(x, 0, 0, int(x)*10)
	}
}

func TestComputeVisibleDeterministic(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 4, OcclusionCulling: true})
	loadGrid(c, 4, 4)

	cam := mgl32.Vec3{8, 24, 8}
	first := append([]int(nil), c.ComputeVisible(cam, core.InfiniteFrustum{}, 1, false)...)
	second := append([]int(nil), c.ComputeVisible(cam, core.InfiniteFrustum{}, 1, false)...)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestComputeVisibleEachOnceOnCyclicGraph(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 3, OcclusionCulling: true})
	ids := loadGrid(c, 3, 3)

	visible := c.ComputeVisible(mgl32.Vec3{8, 24, 8}, core.InfiniteFrustum{}, 7, false)

	seen := map[int]bool{}
	for _, id := range visible {
		assert.False(t, seen[id], "id %d listed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, len(ids), "every section of a fully open grid is reachable")
	assert.Equal(t, uint32(7), c.LastFrame())
}

func TestComputeVisibleRespectsFrustum(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 6, OcclusionCulling: true})
	ids := loadGrid(c, 6, 4)

	cam := core.NewCameraState()
	cam.Position = mgl32.Vec3{8, 40, 8}
	cam.Far = 200
	frustum := cam.Frustum(1.0)

	visible := c.ComputeVisible(cam.Position, frustum, 1, false)
	require.NotEmpty(t, visible)
	assert.Less(t, len(visible), len(ids))

	for _, id := range visible {
		assert.True(t, frustum.IsBoxVisible(core.SectionBounds(ids[id])), "section %v listed outside the frustum", ids[id])
	}
}

func TestRootOutsideFrustumNotListed(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 2})
	loadLine(c, 3)

	reject := rejectFrustum{pos: core.SectionPos{}}
	visible := c.ComputeVisible(mgl32.Vec3{8, 8, 8}, reject, 1, false)
	assert.Equal(t, []int{10, 20}, visible)
	assert.False(t, c.IsSectionVisible(0, 0, 0))
	assert.True(t, c.IsSectionVisible(1, 0, 0))
}

type rejectFrustum struct{ pos core.SectionPos }

func (r rejectFrustum) IsBoxVisible(b core.Bounds) bool {
	return b != core.SectionBounds(r.pos)
}

func TestOcclusionStopsWalk(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 8, OcclusionCulling: true})
	loadLine(c, 5)
	c.OnSectionStateChanged(2, 0, 0, 0)

	visible := c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, false)
	assert.Equal(t, []int{0, 10, 20}, visible)

	// a path that connects west to east lets the walk through
	c.OnSectionStateChanged(2, 0, 0, core.VisibilityData(0).Connect(core.West, core.East))
	visible = c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 2, false)
	assert.Equal(t, []int{0, 10, 20, 30, 40}, visible)
}

func TestOcclusionDisabled(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 8})
	loadLine(c, 5)
	c.OnSectionStateChanged(2, 0, 0, 0)

	visible := c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, false)
	assert.Len(t, visible, 5)
}

func TestOcclusionDisabledWalksAroundGaps(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 4})
	// U-shaped columns with (0,1) missing: (0,2) is only reachable by turning back west
	columns := []core.ColumnPos{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 1, Z: 2}, {X: 0, Z: 2}}
	id := 0
	for _, p := range columns {
		for y := int32(0); y < core.SectionsPerColumn; y++ {
			c.OnSectionLoaded(p.X, y, p.Z, id)
			id++
		}
	}

	visible := c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, false)
	assert.Len(t, visible, id)
	assert.True(t, c.IsSectionVisible(0, 0, 2))
	assert.True(t, c.IsSectionVisible(0, 15, 2))
}

func TestSpectatorInsideOpaqueBlock(t *testing.T) {
	c := NewGraphCuller(GraphConfig{
		RenderDistance:   8,
		OcclusionCulling: true,
		IsOpaque:         func(x, y, z int32) bool { return true },
	})
	loadLine(c, 5)
	c.OnSectionStateChanged(2, 0, 0, 0)

	assert.Len(t, c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, true), 5)
	assert.Len(t, c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 2, false), 3)
}

func TestSetRenderDistance(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 2})
	loadLine(c, 6)

	c.SetRenderDistance(4)
	assert.Len(t, c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, false), 5)

	c.SetRenderDistance(0)
	assert.Len(t, c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 2, false), 5, "non-positive distance ignored")
}

func TestRenderDistance(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 2})
	loadLine(c, 6)

	visible := c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, false)
	assert.Equal(t, []int{0, 10, 20}, visible)
}

func TestFallbackLayerWhenCameraAboveWorld(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 8})
	c.OnSectionLoaded(0, 15, 0, 0)
	c.OnSectionLoaded(1, 15, 0, 1)
	c.OnSectionLoaded(3, 15, 0, 3)

	visible := c.ComputeVisible(mgl32.Vec3{56, 300, 8}, core.InfiniteFrustum{}, 1, false)
	assert.Equal(t, []int{3, 1, 0}, visible)
}

func TestUnloadUnlinks(t *testing.T) {
	c := NewGraphCuller(GraphConfig{RenderDistance: 8})
	loadLine(c, 5)
	c.OnSectionUnloaded(2, 0, 0)
	c.OnSectionUnloaded(2, 0, 0)

	assert.Equal(t, 4, c.Len())
	visible := c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 1, false)
	assert.Equal(t, []int{0, 10}, visible)

	c.OnSectionLoaded(2, 0, 0, 99)
	visible = c.ComputeVisible(mgl32.Vec3{8, 8, 8}, core.InfiniteFrustum{}, 2, false)
	assert.Equal(t, []int{0, 10, 99, 30, 40}, visible)
}
