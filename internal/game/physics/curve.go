// Package physics provides the response curves used by the controllers and
// a small headless rigid-body world that stands in for an engine's physics
// integration.
package physics

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp clamps v to [lo,hi].
//
// Precondition: lo <= hi.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates from a to b by t without clamping t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// InverseLerp returns where v lies between a and b, clamped to [0,1].
// A degenerate range (a == b) yields 0 below a and 1 at or above it.
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		if v < a {
			return 0
		}
		return 1
	}
	return Clamp01((v - a) / (b - a))
}

// Smoothstep is the cubic Hermite ease between edge0 and edge1.
//
// Postcondition: result is in [0,1], 0 at or below edge0 and 1 at or above edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	t := InverseLerp(edge0, edge1, x)
	return t * t * (3 - 2*t)
}
