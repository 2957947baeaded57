package core

import "github.com/go-gl/mathgl/mgl32"

const (
	SectionSize       = 16
	SectionsPerColumn = 16
	WorldHeight       = SectionSize * SectionsPerColumn
)

// SectionPos addresses a 16x16x16 section in section coordinates.
type SectionPos struct {
	X, Y, Z int32
}

// Pack encodes the position as x:22 | z:22 | y:20 bits.
func (p SectionPos) Pack() int64 {
	return (int64(p.X)&0x3FFFFF)<<42 | (int64(p.Z)&0x3FFFFF)<<20 | int64(p.Y)&0xFFFFF
}

func UnpackSectionPos(v int64) SectionPos {
	return SectionPos{
		X: int32(v >> 42),
		Y: int32(v << 44 >> 44),
		Z: int32(v << 22 >> 42),
	}
}

func (p SectionPos) Column() ColumnPos {
	return ColumnPos{X: p.X, Z: p.Z}
}

func (p SectionPos) Offset(d Direction) SectionPos {
	o := d.Offset()
	return SectionPos{X: p.X + o[0], Y: p.Y + o[1], Z: p.Z + o[2]}
}

// Origin returns the block coordinate of the section's minimum corner.
func (p SectionPos) Origin() mgl32.Vec3 {
	return mgl32.Vec3{float32(p.X * SectionSize), float32(p.Y * SectionSize), float32(p.Z * SectionSize)}
}

func (p SectionPos) Center() mgl32.Vec3 {
	half := float32(SectionSize / 2)
	return p.Origin().Add(mgl32.Vec3{half, half, half})
}

func (p SectionPos) InWorld() bool {
	return p.Y >= 0 && p.Y < SectionsPerColumn
}

// SectionPosAt converts a world-space point to the section containing it.
func SectionPosAt(v mgl32.Vec3) SectionPos {
	return SectionPos{X: blockToSection(v.X()), Y: blockToSection(v.Y()), Z: blockToSection(v.Z())}
}

func blockToSection(f float32) int32 {
	b := int32(f)
	if float32(b) > f {
		b--
	}
	return b >> 4
}

// ColumnPos addresses a vertical stack of sections.
type ColumnPos struct {
	X, Z int32
}

// Pack matches the usual chunk-position long layout: x in the low word, z in the high word.
func (p ColumnPos) Pack() int64 {
	return int64(uint32(p.X)) | int64(uint32(p.Z))<<32
}

func UnpackColumnPos(v int64) ColumnPos {
	return ColumnPos{X: int32(v), Z: int32(v >> 32)}
}

func (p ColumnPos) Section(y int32) SectionPos {
	return SectionPos{X: p.X, Y: y, Z: p.Z}
}

func (p ColumnPos) Offset(d Direction) ColumnPos {
	o := d.Offset()
	return ColumnPos{X: p.X + o[0], Z: p.Z + o[2]}
}
