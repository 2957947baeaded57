package core

// VisibilityData records which pairs of section faces are connected through
// non-opaque blocks. Bit a*6+b is set when face a can see face b.
type VisibilityData uint64

const AllVisible VisibilityData = (1 << (DirectionCount * DirectionCount)) - 1

func (v VisibilityData) Connect(a, b Direction) VisibilityData {
	return v | 1<<(uint(a)*DirectionCount+uint(b)) | 1<<(uint(b)*DirectionCount+uint(a))
}

func (v VisibilityData) IsConnected(a, b Direction) bool {
	return v&(1<<(uint(a)*DirectionCount+uint(b))) != 0
}

// ConnectAll connects every pair of faces in the mask, including each face to itself.
func (v VisibilityData) ConnectAll(faces uint8) VisibilityData {
	for _, a := range AllDirections {
		if faces&(1<<a) == 0 {
			continue
		}
		for _, b := range AllDirections {
			if faces&(1<<b) != 0 {
				v = v.Connect(a, b)
			}
		}
	}
	return v
}

// Outgoing returns the directions reachable after entering through face from.
func (v VisibilityData) Outgoing(from Direction) uint8 {
	return uint8(v>>(uint(from)*DirectionCount)) & ((1 << DirectionCount) - 1)
}
