package section

import "github.com/gekko3d/chunks/chunkrt/rt/core"

// Column is a vertical stack of renders. Adjacent links are non-owning and are
// maintained symmetrically by the owner of the column map.
type Column struct {
	pos      core.ColumnPos
	renders  [core.SectionsPerColumn]*Render
	adjacent [4]*Column
}

func NewColumn(x, z int32) *Column {
	return &Column{pos: core.ColumnPos{X: x, Z: z}}
}

func (c *Column) Pos() core.ColumnPos { return c.pos }

func (c *Column) Render(y int32) *Render {
	if y < 0 || y >= core.SectionsPerColumn {
		return nil
	}
	return c.renders[y]
}

func (c *Column) SetRender(y int32, r *Render) {
	c.renders[y] = r
}

func (c *Column) Renders() []*Render {
	return c.renders[:]
}

func (c *Column) Adjacent(d core.Direction) *Column {
	i := d.HorizontalIndex()
	if i < 0 {
		return nil
	}
	return c.adjacent[i]
}

func (c *Column) SetAdjacent(d core.Direction, other *Column) {
	if i := d.HorizontalIndex(); i >= 0 {
		c.adjacent[i] = other
	}
}

func (c *Column) NeighborsPresent() bool {
	for _, a := range c.adjacent {
		if a == nil {
			return false
		}
	}
	return true
}
