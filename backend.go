package chunks

import (
	"github.com/gekko3d/chunks/chunkrt/rt/build"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/lists"
)

// Backend draws render lists. Upload turns build geometry into graphics states and
// attaches them to the renders.
type Backend interface {
	build.Uploader

	Begin(pass core.BlockRenderPass)
	Render(it *lists.Iterator, cam core.CameraContext)
	End()
}
