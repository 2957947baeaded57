package core

// GraphicsState is a backend-owned resource holding one pass worth of section geometry.
type GraphicsState interface {
	Delete()
}

// Range is a span of vertices inside a mesh buffer.
type Range struct {
	Start uint32
	Count uint32
}

// VertexStride is the byte size of one chunk vertex: position float32x3 + RGBA8 color.
const VertexStride = 16

// MeshData is the CPU-side output of a build for a single pass. Vertices are grouped by
// facing; FaceRanges locates each group.
type MeshData struct {
	Vertices   []byte
	FaceRanges [FacingCount]Range
}

func (m *MeshData) VertexCount() uint32 {
	if m == nil {
		return 0
	}
	return uint32(len(m.Vertices) / VertexStride)
}

func (m *MeshData) IsEmpty() bool {
	return m == nil || len(m.Vertices) == 0
}

// Renderable is a secondary object attached to a section (block entity style).
type Renderable struct {
	X, Y, Z int32
	Kind    uint16
}
