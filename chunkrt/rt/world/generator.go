package world

import (
	"context"
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"golang.org/x/sync/errgroup"
)

// Generator fills columns with a perlin height map.
type Generator struct {
	noise *perlin.Perlin

	BaseHeight int32
	Amplitude  float64
	Scale      float64
	SeaLevel   int32

	stone, dirt, grass, sand, water, leaves, chest BlockID
}

func NewGenerator(reg *Registry, seed int64) (*Generator, error) {
	g := &Generator{
		noise:      perlin.NewPerlin(2.0, 2.0, 3, seed),
		BaseHeight: 64,
		Amplitude:  24,
		Scale:      1.0 / 96.0,
		SeaLevel:   62,
	}

	for name, dst := range map[string]*BlockID{
		"stone":  &g.stone,
		"dirt":   &g.dirt,
		"grass":  &g.grass,
		"sand":   &g.sand,
		"water":  &g.water,
		"leaves": &g.leaves,
		"chest":  &g.chest,
	} {
		id, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("generator: registry has no %q block", name)
		}
		*dst = id
	}
	return g, nil
}

// Height returns the terrain surface height at a block column.
func (g *Generator) Height(x, z int32) int32 {
	n := g.noise.Noise2D(float64(x)*g.Scale, float64(z)*g.Scale)
	h := g.BaseHeight + int32(n*g.Amplitude)
	if h < 1 {
		h = 1
	} else if h >= core.WorldHeight {
		h = core.WorldHeight - 1
	}
	return h
}

func (g *Generator) GenerateColumn(w *MemoryWorld, cx, cz int32) {
	w.EnsureColumn(cx, cz)

	for lx := int32(0); lx < core.SectionSize; lx++ {
		for lz := int32(0); lz < core.SectionSize; lz++ {
			x, z := cx*core.SectionSize+lx, cz*core.SectionSize+lz
			h := g.Height(x, z)

			for y := int32(0); y <= h; y++ {
				id := g.stone
				switch {
				case y == h && h <= g.SeaLevel+1:
					id = g.sand
				case y == h:
					id = g.grass
				case y > h-4:
					id = g.dirt
				}
				w.SetBlock(x, y, z, id)
			}
			for y := h + 1; y <= g.SeaLevel; y++ {
				w.SetBlock(x, y, z, g.water)
			}

			// sparse features keyed off the height so they are stable per seed
			if h > g.SeaLevel+2 && lx > 1 && lx < 14 && lz > 1 && lz < 14 && (x*31+z*17+h)%97 == 0 {
				g.tree(w, x, h+1, z)
			}
			if h > g.SeaLevel+2 && (x*13+z*7)%211 == 0 {
				w.SetBlock(x, h+1, z, g.chest)
			}
		}
	}
}

func (g *Generator) tree(w *MemoryWorld, x, y, z int32) {
	for dy := int32(0); dy < 4; dy++ {
		w.SetBlock(x, y+dy, z, g.dirt)
	}
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			for dy := int32(3); dy <= 5; dy++ {
				if dx == 0 && dz == 0 && dy < 4 {
					continue
				}
				w.SetBlock(x+dx, y+dy, z+dz, g.leaves)
			}
		}
	}
}

// GenerateArea generates every column within radius of (cx, cz) concurrently.
func (g *Generator) GenerateArea(ctx context.Context, w *MemoryWorld, cx, cz, radius int32, workers int) error {
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}

	for x := cx - radius; x <= cx+radius; x++ {
		for z := cz - radius; z <= cz+radius; z++ {
			x, z := x, z
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				g.GenerateColumn(w, x, z)
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("generate area: %w", err)
	}
	return nil
}
