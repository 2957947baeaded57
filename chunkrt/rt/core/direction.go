package core

// Direction is one of the six axis-aligned neighbour directions.
type Direction uint8

const (
	Down Direction = iota
	Up
	North // -Z
	South // +Z
	West  // -X
	East  // +X

	DirectionCount = 6
)

var AllDirections = [DirectionCount]Direction{Down, Up, North, South, West, East}

// HorizontalDirections are the column neighbour slots, in Column link order.
var HorizontalDirections = [4]Direction{North, South, West, East}

var directionOffsets = [DirectionCount][3]int32{
	Down:  {0, -1, 0},
	Up:    {0, 1, 0},
	North: {0, 0, -1},
	South: {0, 0, 1},
	West:  {-1, 0, 0},
	East:  {1, 0, 0},
}

func (d Direction) Offset() [3]int32 {
	return directionOffsets[d]
}

func (d Direction) Opposite() Direction {
	return d ^ 1
}

// HorizontalIndex returns the slot in HorizontalDirections, or -1 for Up/Down.
func (d Direction) HorizontalIndex() int {
	switch d {
	case North:
		return 0
	case South:
		return 1
	case West:
		return 2
	case East:
		return 3
	}
	return -1
}

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return "unknown"
}
