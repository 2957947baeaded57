package editor

import (
	"math"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/world"

	"github.com/go-gl/mathgl/mgl32"
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

type HitResult struct {
	Block  [3]int32
	Normal [3]int32
	T      float32
	ID     world.BlockID
}

// Place returns the free cell in front of the hit face.
func (h HitResult) Place() [3]int32 {
	return [3]int32{h.Block[0] + h.Normal[0], h.Block[1] + h.Normal[1], h.Block[2] + h.Normal[2]}
}

type Editor struct {
	Reach      float32
	BrushBlock world.BlockID
}

func NewEditor(brush world.BlockID) *Editor {
	return &Editor{
		Reach:      64,
		BrushBlock: brush,
	}
}

func (e *Editor) GetPickRay(mouseX, mouseY float64, width, height int, camera *core.CameraState) Ray {
	nx := (2.0*float32(mouseX))/float32(width) - 1.0
	ny := 1.0 - (2.0*float32(mouseY))/float32(height) // flip Y for NDC

	forward := camera.GetForward()
	right := camera.GetRight()
	up := right.Cross(forward)

	aspect := float32(width) / float32(height)
	tanHalfFov := float32(math.Tan(float64(mgl32.DegToRad(camera.FovY) / 2.0)))

	dir := forward.Add(right.Mul(nx * aspect * tanHalfFov)).Add(up.Mul(ny * tanHalfFov))
	return Ray{camera.Position, dir.Normalize()}
}

// Pick walks the block grid along the ray and returns the first renderable block.
func (e *Editor) Pick(w *world.MemoryWorld, ray Ray) *HitResult {
	dir := ray.Direction
	if dir.Len() == 0 {
		return nil
	}
	dir = dir.Normalize()

	cell := [3]int32{floorInt(ray.Origin.X()), floorInt(ray.Origin.Y()), floorInt(ray.Origin.Z())}
	var step [3]int32
	var tMax, tDelta [3]float32

	for i := 0; i < 3; i++ {
		d := dir[i]
		switch {
		case d > 0:
			step[i] = 1
			tMax[i] = (float32(cell[i]+1) - ray.Origin[i]) / d
			tDelta[i] = 1 / d
		case d < 0:
			step[i] = -1
			tMax[i] = (ray.Origin[i] - float32(cell[i])) / -d
			tDelta[i] = -1 / d
		default:
			tMax[i] = float32(math.Inf(1))
			tDelta[i] = float32(math.Inf(1))
		}
	}

	reg := w.Registry()
	var normal [3]int32
	t := float32(0)
	for t <= e.Reach {
		if id := w.Block(cell[0], cell[1], cell[2]); reg.IsRenderable(id) {
			return &HitResult{Block: cell, Normal: normal, T: t, ID: id}
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}

		t = tMax[axis]
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
		normal = [3]int32{}
		normal[axis] = -step[axis]
	}
	return nil
}

// ApplyBrush places the brush block against the hit face, or removes the hit block when
// erase is set. It returns the sections that need rebuilding.
func (e *Editor) ApplyBrush(w *world.MemoryWorld, hit *HitResult, erase bool) []core.SectionPos {
	if hit == nil {
		return nil
	}
	if erase {
		return w.SetBlock(hit.Block[0], hit.Block[1], hit.Block[2], world.Air)
	}
	p := hit.Place()
	return w.SetBlock(p[0], p[1], p[2], e.BrushBlock)
}

func floorInt(f float32) int32 {
	return int32(math.Floor(float64(f)))
}
