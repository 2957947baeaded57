package world

import (
	"image/color"

	"github.com/gekko3d/chunks/chunkrt/rt/core"
)

type BlockID uint16

const Air BlockID = 0

type BlockFlags uint8

const (
	FlagOpaque BlockFlags = 1 << iota
	FlagTranslucent
	FlagCutout
	FlagCutoutMipped
	FlagAnimated
	FlagEntity // carries a secondary renderable
)

type BlockType struct {
	Name  string
	Flags BlockFlags
	Color color.RGBA
}

func (t BlockType) Has(f BlockFlags) bool {
	return t.Flags&f != 0
}

// Registry maps block ids to their render properties. It is immutable once shared
// with build workers.
type Registry struct {
	types  []BlockType
	byName map[string]BlockID
}

func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]BlockID)}
	r.Register(BlockType{Name: "air"})
	return r
}

func (r *Registry) Register(t BlockType) BlockID {
	id := BlockID(len(r.types))
	r.types = append(r.types, t)
	r.byName[t.Name] = id
	return id
}

func (r *Registry) Get(id BlockID) BlockType {
	if int(id) >= len(r.types) {
		return r.types[Air]
	}
	return r.types[id]
}

func (r *Registry) Lookup(name string) (BlockID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

func (r *Registry) IsOpaque(id BlockID) bool {
	return r.Get(id).Has(FlagOpaque)
}

func (r *Registry) IsRenderable(id BlockID) bool {
	return id != Air && int(id) < len(r.types)
}

// Pass returns the draw pass a block's faces belong to.
func (r *Registry) Pass(id BlockID) core.BlockRenderPass {
	t := r.Get(id)
	switch {
	case t.Has(FlagTranslucent):
		return core.PassTranslucent
	case t.Has(FlagCutoutMipped):
		return core.PassCutoutMipped
	case t.Has(FlagCutout):
		return core.PassCutout
	}
	return core.PassSolid
}

// DefaultRegistry is the block set used by the generator and the viewer.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(BlockType{Name: "stone", Flags: FlagOpaque, Color: color.RGBA{120, 120, 120, 255}})
	r.Register(BlockType{Name: "dirt", Flags: FlagOpaque, Color: color.RGBA{134, 96, 67, 255}})
	r.Register(BlockType{Name: "grass", Flags: FlagOpaque, Color: color.RGBA{95, 159, 53, 255}})
	r.Register(BlockType{Name: "sand", Flags: FlagOpaque, Color: color.RGBA{219, 207, 163, 255}})
	r.Register(BlockType{Name: "water", Flags: FlagTranslucent | FlagAnimated, Color: color.RGBA{47, 67, 244, 160}})
	r.Register(BlockType{Name: "glass", Flags: FlagCutout, Color: color.RGBA{200, 230, 240, 90}})
	r.Register(BlockType{Name: "leaves", Flags: FlagCutoutMipped, Color: color.RGBA{60, 120, 40, 220}})
	r.Register(BlockType{Name: "lava", Flags: FlagOpaque | FlagAnimated, Color: color.RGBA{207, 92, 15, 255}})
	r.Register(BlockType{Name: "chest", Flags: FlagEntity, Color: color.RGBA{160, 110, 50, 255}})
	return r
}
