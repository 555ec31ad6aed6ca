package types

// AngleMode selects how trigonometric natives interpret their input.
type AngleMode int

const (
	Radians AngleMode = iota
	Degrees
)

// String returns the angle mode name as used in session files.
func (m AngleMode) String() string {
	if m == Degrees {
		return "degrees"
	}
	return "radians"
}

// Config carries the numeric settings read by every evaluation step.
// It is an explicit value threaded through calls rather than process
// state, so concurrent evaluations with different settings are safe.
type Config struct {
	// Precision is the number of decimal places kept when dividing and
	// when normalizing numeric results for display.
	Precision int

	// Angle selects degrees or radians for the trigonometric family.
	Angle AngleMode

	// ZeroEpsilon is the magnitude below which a scalar result is
	// treated as zero. Matrix pivoting uses its own, looser epsilon.
	ZeroEpsilon float64
}

// DefaultConfig returns the engine defaults: 10 decimal places, radians.
func DefaultConfig() Config {
	return Config{
		Precision:   10,
		Angle:       Radians,
		ZeroEpsilon: 1e-7,
	}
}
