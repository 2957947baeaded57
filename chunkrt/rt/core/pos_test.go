package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSectionPosPackRoundTrip(t *testing.T) {
	positions := []SectionPos{
		{0, 0, 0},
		{1, 2, 3},
		{-1, 15, -1},
		{-2097152, 0, 2097151},
		{123456, 7, -654321},
	}
	for _, p := range positions {
		assert.Equal(t, p, UnpackSectionPos(p.Pack()), "%+v", p)
	}
	assert.NotEqual(t, SectionPos{1, 0, 0}.Pack(), SectionPos{0, 0, 1}.Pack())
}

func TestColumnPosPackRoundTrip(t *testing.T) {
	for _, p := range []ColumnPos{{0, 0}, {-1, 1}, {1 << 30, -(1 << 30)}} {
		assert.Equal(t, p, UnpackColumnPos(p.Pack()))
	}
}

func TestSectionPosAt(t *testing.T) {
	assert.Equal(t, SectionPos{0, 0, 0}, SectionPosAt(mgl32.Vec3{0.5, 15.9, 0}))
	assert.Equal(t, SectionPos{-1, 4, -1}, SectionPosAt(mgl32.Vec3{-0.1, 64, -16}))
	assert.Equal(t, SectionPos{-2, 4, 1}, SectionPosAt(mgl32.Vec3{-16.5, 79, 31}))
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range AllDirections {
		o := d.Offset()
		oo := d.Opposite().Offset()
		assert.Equal(t, [3]int32{-o[0], -o[1], -o[2]}, oo, d.String())
		assert.Equal(t, d, d.Opposite().Opposite())
	}
	for i, d := range HorizontalDirections {
		assert.Equal(t, i, d.HorizontalIndex())
	}
	assert.Equal(t, -1, Up.HorizontalIndex())
}

func TestCameraContextTranslation(t *testing.T) {
	ctx := NewCameraContext(mgl32.Vec3{10.25, -3.5, 100})
	assert.Equal(t, int32(10), ctx.BlockX)
	assert.Equal(t, int32(-4), ctx.BlockY)
	assert.InDelta(t, 0.5, ctx.DeltaY, 1e-6)

	tr := ctx.Translation(mgl32.Vec3{16, 0, 96})
	assert.InDelta(t, 5.75, tr.X(), 1e-5)
	assert.InDelta(t, 3.5, tr.Y(), 1e-5)
	assert.InDelta(t, -4, tr.Z(), 1e-5)
}
