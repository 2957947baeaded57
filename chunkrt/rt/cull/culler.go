// Package cull computes the ordered set of visible sections for a frame.
package cull

import (
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Culler tracks loaded sections and answers which of them are visible.
// Implementations are driven from the frame goroutine only.
type Culler interface {
	ComputeVisible(camera mgl32.Vec3, frustum core.FrustumTester, frame uint32, spectator bool) []int

	OnSectionLoaded(x, y, z int32, id int)
	OnSectionUnloaded(x, y, z int32)
	OnSectionStateChanged(x, y, z int32, occlusion core.VisibilityData)

	IsSectionVisible(x, y, z int32) bool
}
