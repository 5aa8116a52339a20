package jump

import "github.com/san-kum/bungeesim/internal/physics"

const (
	warnHeight   = "WARNING: Negative jump height, setting to 80m"
	warnDuration = "WARNING: Time must be positive, setting to 20s"
	warnLength   = "WARNING: Negative bungee length, setting to 20m"
	warnK        = "WARNING: Negative k value, setting to 100N/m"
	warnMass     = "WARNING: Negative mass, setting to 100kg"
)

// Sanitize replaces out-of-range inputs with defaults and reports each
// replacement. Checks run in a fixed order and the rope check compares the
// derived natural length against the already corrected start height.
// Comparisons are written so that NaN fails them and gets replaced too.
// A zero k is kept and means the rope exerts no force. Zero duration and
// zero mass are replaced, since both leave nothing to integrate.
func Sanitize(in Inputs) (Sanitized, Diagnostics) {
	var diags Diagnostics

	height := in.StartHeight
	if !(height >= 0) {
		diags = append(diags, warnHeight)
		height = DefaultStartHeight
	}

	duration := in.Duration
	if !(duration > 0) {
		diags = append(diags, warnDuration)
		duration = DefaultDuration
	}

	naturalLength := height - in.RopeLength
	if !(naturalLength <= height) {
		diags = append(diags, warnLength)
		naturalLength = DefaultNaturalLength
	}

	k := in.K
	if !(k >= 0) {
		diags = append(diags, warnK)
		k = DefaultK
	}

	mass := in.Mass
	if !(mass > 0) {
		diags = append(diags, warnMass)
		mass = DefaultMass
	}

	return Sanitized{
		StartHeight: height,
		Duration:    duration,
		Params: physics.BungeeParams{
			K:             k,
			NaturalLength: naturalLength,
			Mass:          mass,
			DragLinear:    in.DragLinear,
			DragQuadratic: in.DragQuadratic,
		},
	}, diags
}
