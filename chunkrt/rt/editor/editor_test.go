package editor

import (
	"testing"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
	"github.com/go-gl/mathgl/mgl32"
)

func setup(t *testing.T) (*world.MemoryWorld, *Editor, world.BlockID) {
	t.Helper()
	w := world.NewMemoryWorld(nil)
	stone, ok := w.Registry().Lookup("stone")
	if !ok {
		t.Fatal("stone not registered")
	}
	w.SetBlock(0, 60, 0, stone)
	return w, NewEditor(stone), stone
}

func TestPick(t *testing.T) {
	w, e, stone := setup(t)

	tests := []struct {
		name   string
		ray    Ray
		hit    bool
		block  [3]int32
		normal [3]int32
	}{
		{"down", Ray{mgl32.Vec3{0.5, 70.5, 0.5}, mgl32.Vec3{0, -1, 0}}, true, [3]int32{0, 60, 0}, [3]int32{0, 1, 0}},
		{"side", Ray{mgl32.Vec3{-5.5, 60.5, 0.5}, mgl32.Vec3{1, 0, 0}}, true, [3]int32{0, 60, 0}, [3]int32{-1, 0, 0}},
		{"away", Ray{mgl32.Vec3{0.5, 70.5, 0.5}, mgl32.Vec3{0, 1, 0}}, false, [3]int32{}, [3]int32{}},
		{"out of reach", Ray{mgl32.Vec3{0.5, 200.5, 0.5}, mgl32.Vec3{0, -1, 0}}, false, [3]int32{}, [3]int32{}},
		{"no direction", Ray{mgl32.Vec3{0.5, 70.5, 0.5}, mgl32.Vec3{}}, false, [3]int32{}, [3]int32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := e.Pick(w, tt.ray)
			if (hit != nil) != tt.hit {
				t.Fatalf("hit = %v, want %v", hit != nil, tt.hit)
			}
			if hit == nil {
				return
			}
			if hit.Block != tt.block || hit.Normal != tt.normal {
				t.Errorf("got block %v normal %v, want %v %v", hit.Block, hit.Normal, tt.block, tt.normal)
			}
			if hit.ID != stone {
				t.Errorf("id = %d, want %d", hit.ID, stone)
			}
		})
	}
}

func TestApplyBrush(t *testing.T) {
	w, e, stone := setup(t)

	hit := e.Pick(w, Ray{mgl32.Vec3{0.5, 70.5, 0.5}, mgl32.Vec3{0, -1, 0}})
	if hit == nil {
		t.Fatal("expected a hit")
	}

	dirty := e.ApplyBrush(w, hit, false)
	if w.Block(0, 61, 0) != stone {
		t.Fatal("block not placed on top face")
	}
	if len(dirty) == 0 || dirty[0] != (core.SectionPos{X: 0, Y: 3, Z: 0}) {
		t.Errorf("dirty sections = %v", dirty)
	}

	e.ApplyBrush(w, hit, true)
	if w.Block(0, 60, 0) != world.Air {
		t.Error("block not erased")
	}

	if got := e.ApplyBrush(w, nil, true); got != nil {
		t.Errorf("nil hit returned %v", got)
	}
}

func TestGetPickRayCenter(t *testing.T) {
	cam := core.NewCameraState()
	cam.Yaw = 0.3
	cam.Pitch = -0.2

	e := NewEditor(world.Air)
	ray := e.GetPickRay(640, 360, 1280, 720, cam)

	if ray.Origin != cam.Position {
		t.Errorf("origin = %v", ray.Origin)
	}
	if !ray.Direction.ApproxEqualThreshold(cam.GetForward(), 1e-5) {
		t.Errorf("center ray %v, forward %v", ray.Direction, cam.GetForward())
	}
}
