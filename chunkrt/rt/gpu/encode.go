package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniformSize is the padded size of the chunk shader Camera struct.
const CameraUniformSize = 128

// encodeCamera packs the chunk shader camera block.
//
//	struct Camera {
//	  view_proj: mat4x4<f32>; -- 0
//	  block:     vec4<f32>;   -- 64  integer camera block, w unused
//	  delta:     vec4<f32>;   -- 80  fractional offset, w = fog end
//	  fog_color: vec4<f32>;   -- 96
//	  flags:     u32;         -- 112
//	} -> 128 bytes (padded)
func encodeCamera(viewProj mgl32.Mat4, cam core.CameraContext, fogEnd float32, fogColor [4]float32, debug bool) []byte {
	buf := make([]byte, CameraUniformSize)

	copy(buf[0:], mat4ToBytes(viewProj))
	copy(buf[64:], vec4ToBytes([4]float32{float32(cam.BlockX), float32(cam.BlockY), float32(cam.BlockZ), 0}))
	copy(buf[80:], vec4ToBytes([4]float32{cam.DeltaX, cam.DeltaY, cam.DeltaZ, fogEnd}))
	copy(buf[96:], vec4ToBytes(fogColor))

	flags := uint32(0)
	if debug {
		flags = 1
	}
	binary.LittleEndian.PutUint32(buf[112:], flags)
	return buf
}

// drawRanges returns the vertex ranges to draw for a face mask. Facings are stored
// back to back, so neighbouring visible facings merge into one draw.
func drawRanges(ranges [core.FacingCount]core.Range, faces uint8, out []core.Range) []core.Range {
	out = out[:0]
	for f := core.ModelFacing(0); f < core.FacingCount; f++ {
		r := ranges[f]
		if faces&f.Flag() == 0 || r.Count == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Start+out[n-1].Count == r.Start {
			out[n-1].Count += r.Count
			continue
		}
		out = append(out, r)
	}
	return out
}

// Helpers
func mat4ToBytes(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func vec4ToBytes(v [4]float32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v[3]))
	return buf
}

// alignBuffer rounds a buffer size up to the 4 byte copy alignment.
func alignBuffer(size uint64) uint64 {
	if size%4 != 0 {
		size += 4 - size%4
	}
	return size
}
