package output

import (
	"image/color"
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// intensity is the range quantized channels are clamped to before scaling by 256
var intensity = core.NewInterval(0.000, 0.999)

// LinearToGamma applies a gamma 2 transfer; non-positive and NaN inputs map to 0
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// ToByte converts one linear channel to an 8-bit value: gamma 2, clamp to
// [0, 0.999], then floor(256 x)
func ToByte(linear float64) uint8 {
	return uint8(256 * intensity.Clamp(LinearToGamma(linear)))
}

// ToRGBA converts a linear color to an opaque 8-bit color
func ToRGBA(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: ToByte(c.X),
		G: ToByte(c.Y),
		B: ToByte(c.Z),
		A: 255,
	}
}
