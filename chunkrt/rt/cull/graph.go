package cull

import (
	"sort"

	"github.com/gammazero/deque"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// OpaqueFunc reports whether the block at a world position fully blocks sight.
type OpaqueFunc func(x, y, z int32) bool

type GraphConfig struct {
	// RenderDistance is the horizontal radius in sections.
	RenderDistance   int32
	OcclusionCulling bool
	IsOpaque         OpaqueFunc
}

type node struct {
	pos       core.SectionPos
	id        int
	bounds    core.Bounds
	occlusion core.VisibilityData
	adjacent  [core.DirectionCount]*node

	visited uint32 // walk generation that reached the node
	listed  uint32 // walk generation that reported it visible
	queued  bool
	start   bool
	travel  uint8 // directions taken from the start to reach the node
	entered uint8 // faces the walk came in through
}

// GraphCuller walks the six-way section adjacency graph outwards from the camera,
// stopping at the frustum, the render distance and faces that cannot see each other.
type GraphCuller struct {
	cfg   GraphConfig
	nodes map[int64]*node

	queue   deque.Deque[*node]
	visible []int
	gen     uint32
	frame   uint32
}

func NewGraphCuller(cfg GraphConfig) *GraphCuller {
	if cfg.RenderDistance <= 0 {
		cfg.RenderDistance = 1
	}
	return &GraphCuller{
		cfg:   cfg,
		nodes: make(map[int64]*node),
	}
}

func (c *GraphCuller) SetRenderDistance(d int32) {
	if d > 0 {
		c.cfg.RenderDistance = d
	}
}

func (c *GraphCuller) Len() int {
	return len(c.nodes)
}

// LastFrame returns the frame id of the most recent walk.
func (c *GraphCuller) LastFrame() uint32 {
	return c.frame
}

func (c *GraphCuller) OnSectionLoaded(x, y, z int32, id int) {
	pos := core.SectionPos{X: x, Y: y, Z: z}
	key := pos.Pack()

	if n, ok := c.nodes[key]; ok {
		n.id = id
		n.occlusion = core.AllVisible
		return
	}

	n := &node{
		pos:       pos,
		id:        id,
		bounds:    core.SectionBounds(pos),
		occlusion: core.AllVisible,
	}
	c.nodes[key] = n

	for _, d := range core.AllDirections {
		if adj, ok := c.nodes[pos.Offset(d).Pack()]; ok {
			n.adjacent[d] = adj
			adj.adjacent[d.Opposite()] = n
		}
	}
}

func (c *GraphCuller) OnSectionUnloaded(x, y, z int32) {
	key := core.SectionPos{X: x, Y: y, Z: z}.Pack()
	n, ok := c.nodes[key]
	if !ok {
		return
	}

	for _, d := range core.AllDirections {
		if adj := n.adjacent[d]; adj != nil {
			adj.adjacent[d.Opposite()] = nil
			n.adjacent[d] = nil
		}
	}
	delete(c.nodes, key)
}

func (c *GraphCuller) OnSectionStateChanged(x, y, z int32, occlusion core.VisibilityData) {
	if n, ok := c.nodes[core.SectionPos{X: x, Y: y, Z: z}.Pack()]; ok {
		n.occlusion = occlusion
	}
}

func (c *GraphCuller) IsSectionVisible(x, y, z int32) bool {
	n, ok := c.nodes[core.SectionPos{X: x, Y: y, Z: z}.Pack()]
	return ok && c.gen != 0 && n.listed == c.gen
}

// ComputeVisible returns the ids of visible sections in walk order. The returned slice
// is reused by the next call.
func (c *GraphCuller) ComputeVisible(camera mgl32.Vec3, frustum core.FrustumTester, frame uint32, spectator bool) []int {
	if frustum == nil {
		frustum = core.InfiniteFrustum{}
	}

	c.gen++
	c.frame = frame
	c.visible = c.visible[:0]
	c.queue.Clear()

	occlusion := c.cfg.OcclusionCulling
	if occlusion && spectator && c.cfg.IsOpaque != nil {
		bx, by, bz := blockPos(camera)
		if c.cfg.IsOpaque(bx, by, bz) {
			occlusion = false
		}
	}

	origin := core.SectionPosAt(camera)
	c.initSearch(origin, camera, frustum)

	for c.queue.Len() > 0 {
		n := c.queue.PopFront()
		n.queued = false
		c.expand(n, origin, frustum, occlusion)
	}

	return c.visible
}

func (c *GraphCuller) initSearch(origin core.SectionPos, camera mgl32.Vec3, frustum core.FrustumTester) {
	if root, ok := c.nodes[origin.Pack()]; ok {
		c.begin(root, true)
		if frustum.IsBoxVisible(root.bounds) {
			c.list(root)
		}
		return
	}

	// Camera outside loaded space: seed from the closest loaded layer.
	y := origin.Y
	if y < 0 {
		y = 0
	} else if y >= core.SectionsPerColumn {
		y = core.SectionsPerColumn - 1
	}

	rd := c.cfg.RenderDistance
	var seeds []*node
	for x := origin.X - rd; x <= origin.X+rd; x++ {
		for z := origin.Z - rd; z <= origin.Z+rd; z++ {
			n, ok := c.nodes[core.SectionPos{X: x, Y: y, Z: z}.Pack()]
			if !ok || !frustum.IsBoxVisible(n.bounds) {
				continue
			}
			seeds = append(seeds, n)
		}
	}

	sort.SliceStable(seeds, func(i, j int) bool {
		return squaredDistance(seeds[i], camera) < squaredDistance(seeds[j], camera)
	})

	for _, n := range seeds {
		c.begin(n, true)
		c.list(n)
	}
}

func (c *GraphCuller) begin(n *node, start bool) {
	n.visited = c.gen
	n.start = start
	n.travel = 0
	n.entered = 0
	n.queued = true
	c.queue.PushBack(n)
}

func (c *GraphCuller) list(n *node) {
	n.listed = c.gen
	c.visible = append(c.visible, n.id)
}

func (c *GraphCuller) expand(n *node, origin core.SectionPos, frustum core.FrustumTester, occlusion bool) {
	for _, d := range core.AllDirections {
		adj := n.adjacent[d]
		if adj == nil {
			continue
		}

		// with occlusion on, never turn back towards the camera
		if occlusion && n.travel&(1<<d.Opposite()) != 0 {
			continue
		}

		if occlusion && !n.start && !canExit(n, d) {
			continue
		}

		if adj.visited == c.gen {
			if adj.queued {
				adj.entered |= 1 << d.Opposite()
			}
			continue
		}

		if !c.inRange(adj.pos, origin) || !frustum.IsBoxVisible(adj.bounds) {
			continue
		}

		c.begin(adj, false)
		adj.travel = n.travel | 1<<d
		adj.entered = 1 << d.Opposite()
		c.list(adj)
	}
}

// canExit reports whether any face the walk entered through sees face d.
func canExit(n *node, d core.Direction) bool {
	for _, from := range core.AllDirections {
		if n.entered&(1<<from) != 0 && n.occlusion.IsConnected(from, d) {
			return true
		}
	}
	return false
}

func (c *GraphCuller) inRange(p, origin core.SectionPos) bool {
	dx := p.X - origin.X
	dz := p.Z - origin.Z
	rd := c.cfg.RenderDistance
	return dx >= -rd && dx <= rd && dz >= -rd && dz <= rd
}

func squaredDistance(n *node, p mgl32.Vec3) float32 {
	d := n.bounds.Center().Sub(p)
	return d.Dot(d)
}

func blockPos(p mgl32.Vec3) (int32, int32, int32) {
	return floor(p.X()), floor(p.Y()), floor(p.Z())
}

func floor(f float32) int32 {
	i := int32(f)
	if float32(i) > f {
		i--
	}
	return i
}
