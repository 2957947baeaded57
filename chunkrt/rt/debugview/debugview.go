// Package debugview renders a top-down map of loaded columns for inspecting culling and
// rebuild state.
package debugview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/section"
	"github.com/go-gl/mathgl/mgl32"

	"golang.org/x/image/colornames"
	xdraw "golang.org/x/image/draw"
)

type Source interface {
	EachColumn(fn func(*section.Column))
	IsChunkVisible(x, y, z int32) bool
}

// ColumnSummary counts section states of one column.
type ColumnSummary struct {
	Visible  int
	Dirty    int
	NonEmpty int
}

var (
	Background   = colornames.Black
	EmptyColumn  = colornames.Dimgray
	HiddenColumn = colornames.Steelblue
	DirtyColumn  = colornames.Orange
	CameraMarker = colornames.Red
	visibleLow   = colornames.Darkgreen
	visibleHigh  = colornames.Lime
)

func Summarize(src Source, c *section.Column) ColumnSummary {
	var s ColumnSummary
	p := c.Pos()
	for y, r := range c.Renders() {
		if r == nil {
			continue
		}
		if src.IsChunkVisible(p.X, int32(y), p.Z) {
			s.Visible++
		}
		if r.NeedsRebuild() {
			s.Dirty++
		}
		if !r.IsEmpty() {
			s.NonEmpty++
		}
	}
	return s
}

// ColumnColor picks the map color for a column.
func ColumnColor(s ColumnSummary) color.RGBA {
	switch {
	case s.Dirty > 0:
		return DirtyColumn
	case s.Visible > 0:
		return lerp(visibleLow, visibleHigh, float32(s.Visible)/core.SectionsPerColumn)
	case s.NonEmpty == 0:
		return EmptyColumn
	}
	return HiddenColumn
}

// Render draws the columns within radius of the camera column, cell pixels per column.
// North (-Z) is up.
func Render(src Source, camera mgl32.Vec3, radius int32, cell int) *image.RGBA {
	if cell < 1 {
		cell = 1
	}
	size := int(2*radius + 1)
	center := core.SectionPosAt(camera)

	small := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(small, small.Bounds(), image.NewUniform(Background), image.Point{}, xdraw.Src)

	src.EachColumn(func(c *section.Column) {
		p := c.Pos()
		x := int(p.X - center.X + radius)
		z := int(p.Z - center.Z + radius)
		if x < 0 || z < 0 || x >= size || z >= size {
			return
		}
		small.SetRGBA(x, z, ColumnColor(Summarize(src, c)))
	})

	dst := image.NewRGBA(image.Rect(0, 0, size*cell, size*cell))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), xdraw.Src, nil)

	// camera cell outline
	r := int(radius) * cell
	outline := []image.Rectangle{
		image.Rect(r, r, r+cell, r+1),
		image.Rect(r, r+cell-1, r+cell, r+cell),
		image.Rect(r, r, r+1, r+cell),
		image.Rect(r+cell-1, r, r+cell, r+cell),
	}
	for _, rect := range outline {
		xdraw.Draw(dst, rect, image.NewUniform(CameraMarker), image.Point{}, xdraw.Src)
	}
	return dst
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("debug view: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("debug view encode: %w", err)
	}
	return f.Close()
}

func lerp(a, b color.RGBA, t float32) color.RGBA {
	t = max(0, min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}
