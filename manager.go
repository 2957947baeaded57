// Package chunks decides every frame which world sections are drawn, which get rebuilt,
// and in what order rebuilds are submitted to the build workers.
package chunks

import (
	"fmt"

	"github.com/gekko3d/chunks/chunkrt/rt/build"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/cull"
	"github.com/gekko3d/chunks/chunkrt/rt/idtable"
	"github.com/gekko3d/chunks/chunkrt/rt/lists"
	"github.com/gekko3d/chunks/chunkrt/rt/profiler"
	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
	"github.com/go-gl/mathgl/mgl32"
)

const initialRenderCapacity = 16384

type Deps struct {
	Backend Backend
	World   world.Source
	Mesher  build.Mesher

	// Culler defaults to a GraphCuller built from the options.
	Culler   cull.Culler
	Fog      FogSource
	Logger   Logger
	Metrics  *Metrics
	Profiler *profiler.Profiler
}

// frameConfig is the configuration a single frame runs with.
type frameConfig struct {
	camera      mgl32.Vec3
	faceCulling bool
	fogCutoff   float32
}

// Manager owns every loaded section and drives culling, list building and rebuild
// scheduling. All methods must be called from the frame goroutine.
type Manager struct {
	opts Options
	log  Logger

	backend  Backend
	world    world.Source
	culler   cull.Culler
	fog      FogSource
	metrics  *Metrics
	profiler *profiler.Profiler

	builder   *build.Builder
	scheduler *build.Scheduler

	renders *idtable.Table[*section.Render]
	columns map[int64]*section.Column

	lists              *lists.Set
	tickable           []*section.Render
	visibleRenderables []core.Renderable
	visibleCount       int

	frame     frameConfig
	dirty     bool
	destroyed bool
}

func NewManager(opts Options, deps Deps) (*Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Backend == nil || deps.World == nil || deps.Mesher == nil {
		return nil, fmt.Errorf("chunk manager: backend, world and mesher are required")
	}

	m := &Manager{
		opts:     opts,
		log:      OrNop(deps.Logger),
		backend:  deps.Backend,
		world:    deps.World,
		culler:   deps.Culler,
		fog:      deps.Fog,
		metrics:  deps.Metrics,
		profiler: deps.Profiler,
		renders:  idtable.New[*section.Render](initialRenderCapacity),
		columns:  make(map[int64]*section.Column),
		lists:    lists.NewSet(1024),
		dirty:    true,
	}
	if m.culler == nil {
		m.culler = cull.NewGraphCuller(cull.GraphConfig{
			RenderDistance:   int32(opts.RenderDistance),
			OcclusionCulling: opts.OcclusionCulling,
			IsOpaque:         deps.World.IsOpaqueBlock,
		})
	}

	builder, err := build.NewBuilder(build.Config{
		Workers:        opts.Workers,
		TasksPerWorker: opts.TasksPerWorker,
		Budget:         opts.SchedulingBudget,
	}, build.Deps{
		World:     deps.World,
		Mesher:    deps.Mesher,
		Lookup:    m.renders.Get,
		Uploader:  deps.Backend,
		OnApplied: m.onRenderUpdated,
		Logger:    Named(m.log, "build"),
	})
	if err != nil {
		return nil, fmt.Errorf("chunk manager: %w", err)
	}
	m.builder = builder
	m.scheduler = build.NewScheduler(builder, opts.RequireNeighbors)

	m.log.Debugf("chunk manager: %d workers, render distance %d", opts.Workers, opts.RenderDistance)
	return m, nil
}

// Update runs one frame: reset, setup, visibility walk, scheduling.
func (m *Manager) Update(camera mgl32.Vec3, frustum core.FrustumTester, frame uint32, spectator bool) {
	if m.destroyed {
		return
	}

	m.profiler.BeginScope("Reset")
	m.reset()
	m.profiler.EndScope("Reset")

	m.profiler.BeginScope("Setup")
	m.setup(camera)
	m.profiler.EndScope("Setup")

	m.profiler.BeginScope("Walk")
	m.iterateChunks(camera, frustum, frame, spectator)
	m.profiler.EndScope("Walk")

	urgent := m.scheduler.UrgentLen()
	m.profiler.SetCount("urgent", urgent)
	m.profiler.SetCount("normal", m.scheduler.NormalLen())

	m.profiler.BeginScope("Schedule")
	m.dirty = m.scheduler.Run()
	m.profiler.EndScope("Schedule")

	stats := m.scheduler.Stats()
	m.profiler.SetCount("visible", m.visibleCount)
	m.profiler.SetCount("submitted", stats.Async+stats.Deferred)

	m.metrics.observe(frameStats{
		visible: m.visibleCount,
		columns: len(m.columns),
		urgent:  urgent,
		carried: stats.Remaining,
		pending: m.builder.Pending(),
		builds:  m.builder.Stats(),
	})
}

func (m *Manager) reset() {
	m.scheduler.Reset()
	m.lists.Reset()
	for i := range m.tickable {
		m.tickable[i] = nil
	}
	m.tickable = m.tickable[:0]
	m.visibleRenderables = m.visibleRenderables[:0]
	m.visibleCount = 0
}

func (m *Manager) setup(camera mgl32.Vec3) {
	m.frame = frameConfig{
		camera:      camera,
		faceCulling: m.opts.FaceCulling,
		fogCutoff:   fogCutoff(m.opts.FogCulling, m.fog),
	}
	m.scheduler.SetCamera(camera)
}

func (m *Manager) iterateChunks(camera mgl32.Vec3, frustum core.FrustumTester, frame uint32, spectator bool) {
	for _, id := range m.culler.ComputeVisible(camera, frustum, frame, spectator) {
		if r, ok := m.renders.Get(id); ok {
			m.addChunk(r)
		}
	}
}

func (m *Manager) addChunk(r *section.Render) {
	if r.NeedsRebuild() && r.CanRebuild(m.opts.RequireNeighbors) {
		m.scheduler.Enqueue(r, r.NeedsImportantRebuild())
	}

	if m.frame.fogCutoff > 0 && r.SquaredDistanceXZ(m.frame.camera) > m.frame.fogCutoff {
		return
	}

	if !r.IsEmpty() {
		m.addChunkToRenderLists(r)
		m.addRenderables(r)
	}
}

func (m *Manager) addChunkToRenderLists(r *section.Render) {
	visible := core.ComputeVisibleFaces(m.frame.camera, r.Bounds(), m.frame.faceCulling) & r.Faces()
	if visible == core.FaceNone {
		return
	}

	added := false
	for _, pass := range core.AllPasses {
		if s := r.GraphicsState(pass); s != nil {
			m.lists.Get(pass).Add(s, visible)
			added = true
		}
	}

	if added {
		if r.IsTickable() {
			m.tickable = append(m.tickable, r)
		}
		m.visibleCount++
	}
}

func (m *Manager) addRenderables(r *section.Render) {
	if rs := r.Data().Renderables; len(rs) > 0 {
		m.visibleRenderables = append(m.visibleRenderables, rs...)
	}
}

func (m *Manager) onRenderUpdated(r *section.Render) {
	p := r.Pos()
	m.culler.OnSectionStateChanged(p.X, p.Y, p.Z, r.Data().Occlusion)
}

// RenderLayer draws one pass. Translucent passes are drawn back to front.
func (m *Manager) RenderLayer(pass core.BlockRenderPass, cameraOffset mgl32.Vec3) {
	it := m.lists.Get(pass).Iterator(pass.IsTranslucent())

	m.backend.Begin(pass)
	m.backend.Render(it, core.NewCameraContext(cameraOffset))
	m.backend.End()
}

// TickVisibleRenders advances animations of visible tickable sections.
func (m *Manager) TickVisibleRenders() {
	for _, r := range m.tickable {
		r.Tick()
	}
}

func (m *Manager) OnChunkAdded(x, z int32) {
	m.loadChunk(x, z)
}

func (m *Manager) OnChunkRemoved(x, z int32) {
	m.unloadChunk(x, z)
}

// RestoreChunks loads every column in a set of packed column positions.
func (m *Manager) RestoreChunks(packed []int64) {
	for _, p := range packed {
		pos := core.UnpackColumnPos(p)
		m.loadChunk(pos.X, pos.Z)
	}
}

func (m *Manager) loadChunk(x, z int32) {
	column := section.NewColumn(x, z)
	key := column.Pos().Pack()

	if prev, ok := m.columns[key]; ok {
		m.disconnectNeighborColumns(prev)
		m.unloadSections(prev)
	}
	m.columns[key] = column

	m.connectNeighborColumns(column)
	m.loadSections(column)

	m.dirty = true
	m.log.Debugf("loaded column %d,%d", x, z)
}

func (m *Manager) unloadChunk(x, z int32) {
	key := core.ColumnPos{X: x, Z: z}.Pack()
	column, ok := m.columns[key]
	if !ok {
		return
	}
	delete(m.columns, key)

	m.disconnectNeighborColumns(column)
	m.unloadSections(column)

	m.dirty = true
	m.log.Debugf("unloaded column %d,%d", x, z)
}

func (m *Manager) loadSections(column *section.Column) {
	for y := int32(0); y < core.SectionsPerColumn; y++ {
		r := m.createChunkRender(column, y)
		column.SetRender(y, r)

		p := r.Pos()
		m.culler.OnSectionLoaded(p.X, p.Y, p.Z, r.ID())
	}
}

func (m *Manager) unloadSections(column *section.Column) {
	for y := int32(0); y < core.SectionsPerColumn; y++ {
		if r := column.Render(y); r != nil {
			r.Delete()
			m.renders.Remove(r.ID())
			column.SetRender(y, nil)
		}

		p := column.Pos().Section(y)
		m.culler.OnSectionUnloaded(p.X, p.Y, p.Z)
	}
}

func (m *Manager) createChunkRender(column *section.Column, y int32) *section.Render {
	r := section.NewRender(column, column.Pos().Section(y))

	if m.world.IsSectionEmpty(r.Pos()) {
		r.SetData(section.EmptyData)
	} else {
		r.ScheduleRebuild(false)
	}

	r.SetID(m.renders.Add(r))
	return r
}

func (m *Manager) connectNeighborColumns(column *section.Column) {
	for _, d := range core.HorizontalDirections {
		adj := m.columns[column.Pos().Offset(d).Pack()]
		if adj != nil {
			adj.SetAdjacent(d.Opposite(), column)
		}
		column.SetAdjacent(d, adj)
	}
}

func (m *Manager) disconnectNeighborColumns(column *section.Column) {
	for _, d := range core.HorizontalDirections {
		if adj := column.Adjacent(d); adj != nil && adj.Adjacent(d.Opposite()) == column {
			adj.SetAdjacent(d.Opposite(), nil)
		}
		column.SetAdjacent(d, nil)
	}
}

// ScheduleRebuild marks a section for rebuilding. Unloaded positions are ignored.
func (m *Manager) ScheduleRebuild(x, y, z int32, important bool) {
	r, ok := m.Render(x, y, z)
	if !ok {
		return
	}

	important = important || m.scheduler.IsNearby(r)
	if r.ScheduleRebuild(important) {
		m.scheduler.Enqueue(r, r.NeedsImportantRebuild())
	}

	m.dirty = true
}

// Render returns the section render at a section position.
func (m *Manager) Render(x, y, z int32) (*section.Render, bool) {
	column, ok := m.columns[core.ColumnPos{X: x, Z: z}.Pack()]
	if !ok {
		return nil, false
	}
	r := column.Render(y)
	return r, r != nil
}

func (m *Manager) Column(x, z int32) (*section.Column, bool) {
	c, ok := m.columns[core.ColumnPos{X: x, Z: z}.Pack()]
	return c, ok
}

// SetCameraPosition updates the distance reference used by rebuild requests between frames.
func (m *Manager) SetCameraPosition(p mgl32.Vec3) {
	m.scheduler.SetCamera(p)
}

// EachColumn visits every loaded column in no particular order.
func (m *Manager) EachColumn(fn func(*section.Column)) {
	for _, c := range m.columns {
		fn(c)
	}
}

// Reconfigure applies new culling options from the next frame on. The worker pool
// settings (workers, tasks per worker, scheduling budget) are fixed at construction
// and keep their current values.
func (m *Manager) Reconfigure(opts Options) error {
	opts.Workers = m.opts.Workers
	opts.TasksPerWorker = m.opts.TasksPerWorker
	opts.SchedulingBudget = m.opts.SchedulingBudget
	if err := opts.Validate(); err != nil {
		return err
	}

	if opts.RenderDistance != m.opts.RenderDistance {
		if c, ok := m.culler.(interface{ SetRenderDistance(int32) }); ok {
			c.SetRenderDistance(int32(opts.RenderDistance))
		}
	}
	m.scheduler.SetRequireNeighbors(opts.RequireNeighbors)
	if opts.Debug != m.opts.Debug {
		m.log.SetDebug(opts.Debug)
	}

	m.opts = opts
	m.dirty = true
	return nil
}

func (m *Manager) Options() Options { return m.opts }

func (m *Manager) IsChunkVisible(x, y, z int32) bool {
	return m.culler.IsSectionVisible(x, y, z)
}

func (m *Manager) MarkDirty()    { m.dirty = true }
func (m *Manager) IsDirty() bool { return m.dirty }

func (m *Manager) VisibleChunkCount() int {
	return m.visibleCount
}

// VisibleRenderables are the secondary renderables of sections admitted this frame.
func (m *Manager) VisibleRenderables() []core.Renderable {
	return m.visibleRenderables
}

func (m *Manager) TotalSections() int {
	return len(m.columns) * core.SectionsPerColumn
}

func (m *Manager) LoadedColumns() int {
	return len(m.columns)
}

func (m *Manager) IsBuildQueueEmpty() bool {
	return m.scheduler.UrgentLen() == 0 && m.scheduler.NormalLen() == 0 && m.builder.IsBuildQueueEmpty()
}

// List exposes a pass render list, mainly for inspection tools.
func (m *Manager) List(pass core.BlockRenderPass) *lists.List {
	return m.lists.Get(pass)
}

// Destroy stops the workers and releases every section.
func (m *Manager) Destroy() error {
	if m.destroyed {
		return nil
	}
	m.destroyed = true

	err := m.builder.Stop()

	m.reset()
	for key, column := range m.columns {
		m.disconnectNeighborColumns(column)
		m.unloadSections(column)
		delete(m.columns, key)
	}

	if err != nil {
		return fmt.Errorf("destroy chunk manager: %w", err)
	}
	return nil
}
