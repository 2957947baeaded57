// Package mesher extracts culled-face block geometry and occlusion data from snapshots.
package mesher

import (
	"context"
	"encoding/binary"
	"image/color"
	"math"

	"github.com/gekko3d/chunks/chunkrt/rt/build"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/gekko3d/chunks/chunkrt/rt/world"
)

// entityInset shrinks entity boxes so they never share a plane with neighbouring blocks.
const entityInset = 1.0 / 16.0

// faceShade darkens block faces by direction, matching the usual sun-from-above look.
var faceShade = [core.DirectionCount]float32{
	core.Down:  0.5,
	core.Up:    1.0,
	core.North: 0.8,
	core.South: 0.8,
	core.West:  0.6,
	core.East:  0.6,
}

// Mesher is the reference build.Mesher.
type Mesher struct{}

func New() *Mesher {
	return &Mesher{}
}

type passBuffers [core.FacingCount][]byte

func (m *Mesher) Build(ctx context.Context, snap *world.Snapshot) (*build.Output, error) {
	reg := snap.Registry
	origin := snap.Pos.Origin()

	var buffers [core.PassCount]passBuffers
	data := &section.RenderData{}
	animated := map[world.BlockID]bool{}

	for y := 0; y < core.SectionSize; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for z := 0; z < core.SectionSize; z++ {
			for x := 0; x < core.SectionSize; x++ {
				id := snap.Block(x, y, z)
				if !reg.IsRenderable(id) {
					continue
				}
				t := reg.Get(id)
				pass := reg.Pass(id)
				if t.Has(world.FlagAnimated) && !animated[id] {
					animated[id] = true
					data.Animated = append(data.Animated, uint16(id))
				}

				wx, wy, wz := origin.X()+float32(x), origin.Y()+float32(y), origin.Z()+float32(z)

				if t.Has(world.FlagEntity) {
					data.Renderables = append(data.Renderables, core.Renderable{
						X: int32(wx), Y: int32(wy), Z: int32(wz), Kind: uint16(id),
					})
					buf := &buffers[pass][core.FacingUnassigned]
					for _, d := range core.AllDirections {
						*buf = appendFace(*buf, d, wx, wy, wz, entityInset, t.Color)
					}
					data.Faces |= core.FaceUnassigned
					continue
				}

				for _, d := range core.AllDirections {
					o := d.Offset()
					nb := snap.Block(x+int(o[0]), y+int(o[1]), z+int(o[2]))
					if !faceVisible(reg, id, nb) {
						continue
					}
					f := boundaryFacing(d, x, y, z)
					buffers[pass][f] = appendFace(buffers[pass][f], d, wx, wy, wz, 0, t.Color)
					data.Faces |= f.Flag()
				}
			}
		}
	}

	out := &build.Output{Data: data}
	hasGeometry := false
	for p := range buffers {
		if mesh := buffers[p].mesh(); mesh != nil {
			out.Meshes[p] = mesh
			hasGeometry = true
		}
	}

	data.Occlusion = ComputeOcclusion(snap)
	data.Empty = !hasGeometry && len(data.Renderables) == 0 && len(data.Animated) == 0
	return out, nil
}

func faceVisible(reg *world.Registry, self, nb world.BlockID) bool {
	if nb == world.Air {
		return true
	}
	if reg.IsOpaque(nb) {
		return false
	}
	// no internal faces between equal see-through blocks (water, glass)
	return nb != self || reg.Get(nb).Has(world.FlagEntity)
}

func (b *passBuffers) mesh() *core.MeshData {
	total := 0
	for _, f := range b {
		total += len(f)
	}
	if total == 0 {
		return nil
	}

	m := &core.MeshData{Vertices: make([]byte, 0, total)}
	for i, f := range b {
		m.FaceRanges[i] = core.Range{
			Start: uint32(len(m.Vertices) / core.VertexStride),
			Count: uint32(len(f) / core.VertexStride),
		}
		m.Vertices = append(m.Vertices, f...)
	}
	return m
}

// quad corners per direction, counter-clockwise seen from outside the block
var faceCorners = [core.DirectionCount][4][3]float32{
	core.Down:  {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	core.Up:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	core.North: {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	core.South: {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	core.West:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	core.East:  {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
}

var quadOrder = [6]int{0, 1, 2, 0, 2, 3}

func appendFace(buf []byte, d core.Direction, x, y, z, inset float32, c color.RGBA) []byte {
	shade := faceShade[d]
	packed := [4]byte{
		uint8(float32(c.R) * shade),
		uint8(float32(c.G) * shade),
		uint8(float32(c.B) * shade),
		c.A,
	}
	size := 1 - 2*inset

	var v [core.VertexStride]byte
	for _, i := range quadOrder {
		corner := faceCorners[d][i]
		binary.LittleEndian.PutUint32(v[0:], math.Float32bits(x+inset+corner[0]*size))
		binary.LittleEndian.PutUint32(v[4:], math.Float32bits(y+inset+corner[1]*size))
		binary.LittleEndian.PutUint32(v[8:], math.Float32bits(z+inset+corner[2]*size))
		copy(v[12:], packed[:])
		buf = append(buf, v[:]...)
	}
	return buf
}

// boundaryFacing buckets a quad by direction only when it lies on the section's outer
// plane for that direction. Interior quads stay unassigned.
func boundaryFacing(d core.Direction, x, y, z int) core.ModelFacing {
	c := [3]int{x, y, z}
	for i, v := range d.Offset() {
		if (v > 0 && c[i] != core.SectionSize-1) || (v < 0 && c[i] != 0) {
			return core.FacingUnassigned
		}
	}
	return core.FacingOf(d)
}
