package chunks

const (
	// FogPlaneMinDistance keeps the cutoff sane when fog gets very close (blindness-style effects).
	FogPlaneMinDistance = 8.0 * 8.0
	// FogPlaneOffset pushes the cutoff past the fog far plane; distances are measured to section centres.
	FogPlaneOffset = 12.0
)

// FogSource reports the current fog far distance in blocks. ok is false when there is no fog.
type FogSource interface {
	FogEnd() (end float32, ok bool)
}

// StaticFog is a fixed fog distance. Zero disables fog.
type StaticFog float32

func (f StaticFog) FogEnd() (float32, bool) {
	return float32(f), f > 0
}

// fogCutoff returns the squared XZ distance past which sections are left out of the
// render lists, or 0 when fog culling does not apply.
func fogCutoff(enabled bool, fog FogSource) float32 {
	if !enabled || fog == nil {
		return 0
	}
	end, ok := fog.FogEnd()
	if !ok {
		return 0
	}
	dist := end + FogPlaneOffset
	if dist == 0 {
		return 0
	}
	return max(FogPlaneMinDistance, dist*dist)
}
