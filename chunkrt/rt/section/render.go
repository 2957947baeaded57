package section

import (
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type DirtyState uint8

const (
	DirtyNone DirtyState = iota
	DirtyRebuild
	DirtyImportant
)

// QueueState tracks which rebuild queue currently holds the render.
type QueueState uint8

const (
	QueueNone QueueState = iota
	QueueNormal
	QueueUrgent
)

// RenderData is the immutable summary of the last completed build.
type RenderData struct {
	Faces       uint8 // facings that have geometry in any pass
	Occlusion   core.VisibilityData
	Renderables []core.Renderable
	Animated    []uint16
	Empty       bool
}

var (
	// AbsentData is assigned before the first build completes.
	AbsentData = &RenderData{Empty: true, Occlusion: core.AllVisible}
	// EmptyData marks a section known to contain nothing drawable.
	EmptyData = &RenderData{Empty: true, Occlusion: core.AllVisible}
)

// Render is the per-section render state. All methods must be called from the frame goroutine.
type Render struct {
	id     int
	token  uuid.UUID
	pos    core.SectionPos
	bounds core.Bounds
	column *Column

	data   *RenderData
	states [core.PassCount]core.GraphicsState

	dirty    DirtyState
	queue    QueueState
	inFlight bool
	seq      uint64
	deleted  bool

	ticks uint64
}

func NewRender(column *Column, pos core.SectionPos) *Render {
	return &Render{
		id:     -1,
		token:  uuid.New(),
		pos:    pos,
		bounds: core.SectionBounds(pos),
		column: column,
		data:   AbsentData,
	}
}

func (r *Render) ID() int              { return r.id }
func (r *Render) SetID(id int)         { r.id = id }
func (r *Render) Token() uuid.UUID     { return r.token }
func (r *Render) Pos() core.SectionPos { return r.pos }
func (r *Render) Bounds() core.Bounds  { return r.bounds }
func (r *Render) Column() *Column      { return r.column }
func (r *Render) Data() *RenderData    { return r.data }
func (r *Render) Dirty() DirtyState    { return r.dirty }
func (r *Render) InFlight() bool       { return r.inFlight }
func (r *Render) IsDeleted() bool      { return r.deleted }
func (r *Render) Ticks() uint64        { return r.ticks }

func (r *Render) IsEmpty() bool {
	return r.data.Empty
}

// Faces returns the facings that carry geometry.
func (r *Render) Faces() uint8 {
	return r.data.Faces
}

func (r *Render) NeedsRebuild() bool {
	return r.dirty != DirtyNone
}

func (r *Render) NeedsImportantRebuild() bool {
	return r.dirty == DirtyImportant
}

// ScheduleRebuild marks the render dirty. It returns true only when this call raised the
// dirty state, so repeated requests for the same state are absorbed.
func (r *Render) ScheduleRebuild(important bool) bool {
	prev := r.dirty
	if important {
		r.dirty = DirtyImportant
	} else if r.dirty == DirtyNone {
		r.dirty = DirtyRebuild
	}

	if r.dirty != prev {
		r.seq++
		return true
	}
	return false
}

// CanRebuild reports whether a build may start now.
func (r *Render) CanRebuild(requireNeighbors bool) bool {
	if r.deleted || r.inFlight {
		return false
	}
	if requireNeighbors && (r.column == nil || !r.column.NeighborsPresent()) {
		return false
	}
	return true
}

// BeginBuild clears the dirty state and returns the sequence the result must carry.
func (r *Render) BeginBuild() uint64 {
	r.dirty = DirtyNone
	r.inFlight = true
	return r.seq
}

// FinishBuild ends the in-flight build. It returns false when the render was rescheduled
// or deleted since the build began; such results must be dropped.
func (r *Render) FinishBuild(seq uint64) bool {
	r.inFlight = false
	return !r.deleted && seq == r.seq
}

// CancelBuild ends an in-flight build that produced nothing and restores its dirty state.
func (r *Render) CancelBuild() {
	r.inFlight = false
	if !r.deleted && r.dirty == DirtyNone {
		r.dirty = DirtyRebuild
	}
}

func (r *Render) QueueState() QueueState     { return r.queue }
func (r *Render) SetQueueState(q QueueState) { r.queue = q }

func (r *Render) SetData(d *RenderData) {
	if d == nil {
		d = AbsentData
	}
	r.data = d
}

func (r *Render) GraphicsState(pass core.BlockRenderPass) core.GraphicsState {
	return r.states[pass]
}

// SetGraphicsState replaces the pass resource, releasing the previous one.
func (r *Render) SetGraphicsState(pass core.BlockRenderPass, s core.GraphicsState) {
	if prev := r.states[pass]; prev != nil && prev != s {
		prev.Delete()
	}
	r.states[pass] = s
}

// Delete releases all graphics resources. Safe to call more than once.
func (r *Render) Delete() {
	if r.deleted {
		return
	}
	r.deleted = true
	for i, s := range r.states {
		if s != nil {
			s.Delete()
			r.states[i] = nil
		}
	}
	r.data = AbsentData
	r.dirty = DirtyNone
	r.queue = QueueNone
}

func (r *Render) IsTickable() bool {
	return len(r.data.Animated) > 0
}

func (r *Render) Tick() {
	r.ticks++
}

// SquaredDistance is measured from the section centre.
func (r *Render) SquaredDistance(p mgl32.Vec3) float32 {
	d := r.pos.Center().Sub(p)
	return d.Dot(d)
}

func (r *Render) SquaredDistanceXZ(p mgl32.Vec3) float32 {
	c := r.pos.Center()
	dx := c.X() - p.X()
	dz := c.Z() - p.Z()
	return dx*dx + dz*dz
}
