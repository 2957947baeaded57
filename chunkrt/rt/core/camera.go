package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	Sensitivity float32
	FovY        float32
	Near        float32
	Far         float32
	Spectator   bool
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{8, 90, 8},
		Speed:       20.0,
		Sensitivity: 0.003,
		FovY:        70,
		Near:        0.05,
		Far:         512,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	// Y-up: yaw rotates around Y, yaw 0 looks down -Z
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *CameraState) GetRight() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		0,
		float32(math.Sin(float64(c.Yaw))),
	}
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position
	return mgl32.LookAtV(eye, eye.Add(c.GetForward()), mgl32.Vec3{0, 1, 0})
}

// GetRelativeViewMatrix is the view matrix with the eye at the origin; world positions
// are shifted by the camera offset on the GPU to keep float precision near the player.
func (c *CameraState) GetRelativeViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3{}, c.GetForward(), mgl32.Vec3{0, 1, 0})
}

func (c *CameraState) GetProjection(aspect float32) mgl32.Mat4 {
	if aspect == 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Frustum builds the world-space view frustum for the given aspect ratio.
func (c *CameraState) Frustum(aspect float32) *Frustum {
	return NewFrustum(c.GetProjection(aspect).Mul4(c.GetViewMatrix()))
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	for i := 0; i < 3; i++ {
		// Row 3 + Row i, Row 3 - Row i
		planes[i*2] = mgl32.Vec4{
			vp.At(3, 0) + vp.At(i, 0),
			vp.At(3, 1) + vp.At(i, 1),
			vp.At(3, 2) + vp.At(i, 2),
			vp.At(3, 3) + vp.At(i, 3),
		}
		planes[i*2+1] = mgl32.Vec4{
			vp.At(3, 0) - vp.At(i, 0),
			vp.At(3, 1) - vp.At(i, 1),
			vp.At(3, 2) - vp.At(i, 2),
			vp.At(3, 3) - vp.At(i, 3),
		}
	}

	for i := 0; i < 6; i++ {
		length := float32(math.Sqrt(float64(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// CameraContext splits the camera offset into an integer block part and a fractional
// remainder so the backend can translate sections without precision loss.
type CameraContext struct {
	BlockX, BlockY, BlockZ int32
	DeltaX, DeltaY, DeltaZ float32
	Position               mgl32.Vec3
}

func NewCameraContext(offset mgl32.Vec3) CameraContext {
	bx := float32(math.Floor(float64(offset.X())))
	by := float32(math.Floor(float64(offset.Y())))
	bz := float32(math.Floor(float64(offset.Z())))
	return CameraContext{
		BlockX:   int32(bx),
		BlockY:   int32(by),
		BlockZ:   int32(bz),
		DeltaX:   offset.X() - bx,
		DeltaY:   offset.Y() - by,
		DeltaZ:   offset.Z() - bz,
		Position: offset,
	}
}

// Translation returns the offset to add to a world-space origin to move it into camera space.
func (c CameraContext) Translation(origin mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		origin.X() - float32(c.BlockX) - c.DeltaX,
		origin.Y() - float32(c.BlockY) - c.DeltaY,
		origin.Z() - float32(c.BlockZ) - c.DeltaZ,
	}
}
