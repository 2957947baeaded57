package core

// BlockRenderPass is one draw pass. Passes are drawn in declaration order.
type BlockRenderPass uint8

const (
	PassSolid BlockRenderPass = iota
	PassCutout
	PassCutoutMipped
	PassTranslucent

	PassCount = 4
)

var AllPasses = [PassCount]BlockRenderPass{PassSolid, PassCutout, PassCutoutMipped, PassTranslucent}

// IsTranslucent reports whether the pass is drawn back-to-front.
func (p BlockRenderPass) IsTranslucent() bool {
	return p == PassTranslucent
}

func (p BlockRenderPass) String() string {
	switch p {
	case PassSolid:
		return "solid"
	case PassCutout:
		return "cutout"
	case PassCutoutMipped:
		return "cutout_mipped"
	case PassTranslucent:
		return "translucent"
	}
	return "unknown"
}
