package damage

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/cory-johannsen/motorpool/internal/game/physics"
)

// Rec. 709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// Tint is a desaturate-and-darken colour transform.
// Desaturation 0 keeps the colour; 1 is full grayscale. Darken 1 keeps brightness.
type Tint struct {
	Desaturation float64
	Darken       float64
}

// IdentityTint leaves colours unchanged.
func IdentityTint() Tint {
	return Tint{Desaturation: 0, Darken: 1}
}

// TintAt interpolates from the identity tint to final by k in [0,1].
func TintAt(final Tint, k float64) Tint {
	k = physics.Clamp01(k)
	return Tint{
		Desaturation: physics.Lerp(0, final.Desaturation, k),
		Darken:       physics.Lerp(1, final.Darken, k),
	}
}

// Apply blends c toward its luminance gray by Desaturation and scales the
// result by Darken.
func (t Tint) Apply(c colorful.Color) colorful.Color {
	gray := c.R*lumaR + c.G*lumaG + c.B*lumaB
	mixed := c.BlendRgb(colorful.Color{R: gray, G: gray, B: gray}, t.Desaturation)
	return colorful.Color{
		R: mixed.R * t.Darken,
		G: mixed.G * t.Darken,
		B: mixed.B * t.Darken,
	}
}
