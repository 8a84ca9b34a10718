package input

import "math"

// Scale maps a raw pulse to [-1, 1] piecewise linearly through
// min, neutral and max. Values beyond min or max are clamped.
func Scale(raw float64, min, neutral, max int16) float64 {
	lo, mid, hi := float64(min), float64(neutral), float64(max)
	if raw < mid {
		return Bound((raw-mid)/(mid-lo), -1, 0)
	}
	return Bound((raw-mid)/(hi-mid), 0, 1)
}

// Unscale is the inverse of Scale, value is clamped to [-1, 1].
func Unscale(value float64, min, neutral, max int16) float64 {
	value = Bound(value, -1, 1)
	lo, mid, hi := float64(min), float64(neutral), float64(max)
	if value < 0 {
		return mid + value*(mid-lo)
	}
	return mid + value*(hi-mid)
}

// Pulse rounds Unscale to the nearest pulse, ties to even.
func Pulse(value float64, min, neutral, max int16) uint16 {
	v := math.RoundToEven(Unscale(value, min, neutral, max))
	if v < 0 {
		return 0
	}
	return uint16(v)
}

// Deadband zeroes value within [-deadband, deadband] and moves
// anything outside toward zero by deadband.
func Deadband(value, deadband int) int {
	switch {
	case value > deadband:
		return value - deadband
	case value < -deadband:
		return value + deadband
	}
	return 0
}

// Bound clamps v into [lo, hi].
func Bound(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Blend mixes prev into curr by phase, 0 gives prev and 1 gives curr.
func Blend(prev, curr, phase float64) float64 {
	return prev*(1-phase) + curr*phase
}
