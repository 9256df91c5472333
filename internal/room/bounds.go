package room

// Axis selects which side of the playable rectangle a movement applies to.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Range is an inclusive coordinate interval for a single axis.
type Range struct {
	Min int
	Max int
}

// Clamp applies a signed step to current and saturates the result to the
// range. Clamping an already clamped value yields the same value.
func (r Range) Clamp(current, delta int) int {
	next := current + delta
	if next < r.Min {
		return r.Min
	}
	if next > r.Max {
		return r.Max
	}
	return next
}

// Span reports the number of distinct positions in the range.
func (r Range) Span() int {
	return r.Max - r.Min + 1
}

// Bounds describes the playable rectangle. The two axes carry independent
// ranges; the values are configuration, never baked into movement code.
type Bounds struct {
	X Range
	Y Range
}

// Range returns the interval for the given axis.
func (b Bounds) Range(axis Axis) Range {
	if axis == AxisY {
		return b.Y
	}
	return b.X
}
