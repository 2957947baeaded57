package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestFrustumCulling(t *testing.T) {
	// eye in the middle of section (0,4,0), looking down -Z with a 90 deg FOV
	eye := mgl32.Vec3{8, 72, 8}
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 0.1, 160.0)
	view := mgl32.LookAtV(eye, eye.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0})
	frustum := NewFrustum(proj.Mul4(view))

	tests := []struct {
		name    string
		section SectionPos
		want    bool
	}{
		{"own section", SectionPos{X: 0, Y: 4, Z: 0}, true},
		{"straight ahead", SectionPos{X: 0, Y: 4, Z: -3}, true},
		{"ahead and below", SectionPos{X: 0, Y: 2, Z: -3}, true},
		{"behind", SectionPos{X: 0, Y: 4, Z: 2}, false},
		{"far left", SectionPos{X: -4, Y: 4, Z: -1}, false},
		{"far right", SectionPos{X: 4, Y: 4, Z: -1}, false},
		{"beyond far plane", SectionPos{X: 0, Y: 4, Z: -12}, false},
		{"straddles left plane", SectionPos{X: -2, Y: 4, Z: -2}, true},
		{"high above", SectionPos{X: 0, Y: 9, Z: -1}, false},
	}

	for _, tc := range tests {
		got := frustum.IsBoxVisible(SectionBounds(tc.section))
		if got != tc.want {
			t.Errorf("%s %v: expected %v, got %v", tc.name, tc.section, tc.want, got)
			for i, p := range frustum.Planes {
				t.Logf("  plane %d: %v", i, p)
			}
		}
	}

	huge := Bounds{Min: mgl32.Vec3{-1000, -1000, -1000}, Max: mgl32.Vec3{1000, 1000, 1000}}
	if !frustum.IsBoxVisible(huge) {
		t.Errorf("box enclosing the frustum was culled")
	}
}

func TestCameraFrustumY(t *testing.T) {
	cam := NewCameraState()
	cam.Position = mgl32.Vec3{8, 100, 8}
	cam.Pitch = -1.5 // almost straight down

	f := cam.Frustum(1.0)
	below := SectionBounds(SectionPos{X: 0, Y: 5, Z: 0})
	above := SectionBounds(SectionPos{X: 0, Y: 8, Z: 0})

	if !f.IsBoxVisible(below) {
		t.Errorf("expected section below the camera to be visible")
	}
	if f.IsBoxVisible(above) {
		t.Errorf("expected section above the camera to be culled")
	}
}

func TestInfiniteFrustum(t *testing.T) {
	var f FrustumTester = InfiniteFrustum{}
	if !f.IsBoxVisible(Bounds{Min: mgl32.Vec3{1e6, 1e6, 1e6}, Max: mgl32.Vec3{1e6 + 1, 1e6 + 1, 1e6 + 1}}) {
		t.Errorf("infinite frustum rejected a box")
	}
}
