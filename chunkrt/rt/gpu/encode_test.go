package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

func readFloat(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestEncodeCamera(t *testing.T) {
	vp := mgl32.Translate3D(1, 2, 3)
	cam := core.NewCameraContext(mgl32.Vec3{10.25, -3.5, 7})
	buf := encodeCamera(vp, cam, 96, [4]float32{0.1, 0.2, 0.3, 1}, true)

	if len(buf) != CameraUniformSize {
		t.Fatalf("len = %d", len(buf))
	}

	checks := []struct {
		name string
		off  int
		want float32
	}{
		{"view_proj[12]", 12 * 4, 1},
		{"view_proj[14]", 14 * 4, 3},
		{"block.x", 64, 10},
		{"block.y", 68, -4},
		{"block.z", 72, 7},
		{"delta.x", 80, 0.25},
		{"delta.y", 84, 0.5},
		{"fog end", 92, 96},
		{"fog color g", 100, 0.2},
	}
	for _, c := range checks {
		if got := readFloat(buf, c.off); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
	if flags := binary.LittleEndian.Uint32(buf[112:]); flags != 1 {
		t.Errorf("flags = %d", flags)
	}
}

func TestDrawRanges(t *testing.T) {
	var ranges [core.FacingCount]core.Range
	start := uint32(0)
	for f, n := range []uint32{6, 0, 12, 6, 6, 6, 3} {
		ranges[f] = core.Range{Start: start, Count: n}
		start += n
	}

	tests := []struct {
		name  string
		faces uint8
		want  []core.Range
	}{
		{"none", core.FaceNone, nil},
		{"all merges", core.FaceAll, []core.Range{{Start: 0, Count: 39}}},
		{"up only", core.FaceUp, []core.Range{{Start: 0, Count: 6}}},
		{"empty facing skipped", core.FaceDown, nil},
		{"up and east merge over empty down", core.FaceUp | core.FaceEast, []core.Range{{Start: 0, Count: 18}}},
		{"gap", core.FaceUp | core.FaceSouth | core.FaceUnassigned, []core.Range{{Start: 0, Count: 6}, {Start: 24, Count: 6}, {Start: 36, Count: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := drawRanges(ranges, tt.faces, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("range %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAlignBuffer(t *testing.T) {
	for in, want := range map[uint64]uint64{0: 0, 1: 4, 4: 4, 17: 20} {
		if got := alignBuffer(in); got != want {
			t.Errorf("alignBuffer(%d) = %d, want %d", in, got, want)
		}
	}
}
