package core

import "github.com/go-gl/mathgl/mgl32"

// Bounds is an axis-aligned box in world space. Min <= Max on every axis.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// SectionBounds returns the full 16³ box of a section.
func SectionBounds(p SectionPos) Bounds {
	o := p.Origin()
	return Bounds{Min: o, Max: o.Add(mgl32.Vec3{SectionSize, SectionSize, SectionSize})}
}

func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Min: mgl32.Vec3{min(b.Min.X(), o.Min.X()), min(b.Min.Y(), o.Min.Y()), min(b.Min.Z(), o.Min.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), o.Max.X()), max(b.Max.Y(), o.Max.Y()), max(b.Max.Z(), o.Max.Z())},
	}
}

func (b Bounds) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// FrustumTester decides whether a box is at least partially inside the view volume.
type FrustumTester interface {
	IsBoxVisible(b Bounds) bool
}

// Frustum holds 6 planes (Left, Right, Bottom, Top, Near, Far) in Ax+By+Cz+D=0 form,
// normals pointing inside.
type Frustum struct {
	Planes [6]mgl32.Vec4
}

func NewFrustum(viewProj mgl32.Mat4) *Frustum {
	return &Frustum{Planes: ExtractFrustum(viewProj)}
}

func (f *Frustum) IsBoxVisible(b Bounds) bool {
	return AABBInFrustum(b, f.Planes)
}

// AABBInFrustum checks the positive vertex of the box against each plane; if the most-inside
// corner is still behind a plane the box is fully outside.
func AABBInFrustum(b Bounds, planes [6]mgl32.Vec4) bool {
	for i := 0; i < 6; i++ {
		plane := planes[i]

		var p mgl32.Vec3
		if plane[0] > 0 {
			p[0] = b.Max[0]
		} else {
			p[0] = b.Min[0]
		}
		if plane[1] > 0 {
			p[1] = b.Max[1]
		} else {
			p[1] = b.Min[1]
		}
		if plane[2] > 0 {
			p[2] = b.Max[2]
		} else {
			p[2] = b.Min[2]
		}

		if plane[0]*p[0]+plane[1]*p[1]+plane[2]*p[2]+plane[3] < 0 {
			return false
		}
	}
	return true
}

// InfiniteFrustum accepts every box.
type InfiniteFrustum struct{}

func (InfiniteFrustum) IsBoxVisible(Bounds) bool { return true }
