package core

import "github.com/go-gl/mathgl/mgl32"

// ModelFacing indexes per-face geometry ranges. Unassigned holds geometry that is
// never culled by facing: entity boxes and quads that do not lie on the section boundary.
type ModelFacing uint8

const (
	FacingUp ModelFacing = iota
	FacingDown
	FacingEast
	FacingWest
	FacingSouth
	FacingNorth
	FacingUnassigned

	FacingCount = 7
)

func (f ModelFacing) Flag() uint8 {
	return 1 << f
}

// FacingOf maps a block face direction to the facing slot its quads live in.
func FacingOf(d Direction) ModelFacing {
	switch d {
	case Up:
		return FacingUp
	case Down:
		return FacingDown
	case East:
		return FacingEast
	case West:
		return FacingWest
	case South:
		return FacingSouth
	case North:
		return FacingNorth
	}
	return FacingUnassigned
}

const (
	FaceUp         uint8 = 1 << FacingUp
	FaceDown       uint8 = 1 << FacingDown
	FaceEast       uint8 = 1 << FacingEast
	FaceWest       uint8 = 1 << FacingWest
	FaceSouth      uint8 = 1 << FacingSouth
	FaceNorth      uint8 = 1 << FacingNorth
	FaceUnassigned uint8 = 1 << FacingUnassigned

	FaceNone uint8 = 0
	FaceAll  uint8 = (1 << FacingCount) - 1
)

// ComputeVisibleFaces returns the faces of a section the camera can possibly see.
// The unassigned bit is always present. With culling disabled every face is returned.
func ComputeVisibleFaces(cam mgl32.Vec3, b Bounds, enabled bool) uint8 {
	if !enabled {
		return FaceAll
	}

	faces := FaceUnassigned

	if cam.Y() > b.Max.Y() {
		faces |= FaceUp
	}
	if cam.Y() < b.Min.Y() {
		faces |= FaceDown
	}
	if cam.X() > b.Max.X() {
		faces |= FaceEast
	}
	if cam.X() < b.Min.X() {
		faces |= FaceWest
	}
	if cam.Z() > b.Max.Z() {
		faces |= FaceSouth
	}
	if cam.Z() < b.Min.Z() {
		faces |= FaceNorth
	}

	return faces
}
