package material

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// ColorSource provides spatially-varying colors for materials
type ColorSource interface {
	// Evaluate returns the color at a 3D point
	Evaluate(point core.Vec3) core.Vec3
}

// SolidColor provides uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of position
func (s *SolidColor) Evaluate(point core.Vec3) core.Vec3 {
	return s.Color
}

// Checker alternates between two colors on a 3D lattice of cubes
type Checker struct {
	InvScale float64
	Even     ColorSource
	Odd      ColorSource
}

// NewChecker creates a checker pattern with cubes of the given edge length
func NewChecker(scale float64, even, odd core.Vec3) *Checker {
	return &Checker{
		InvScale: 1.0 / scale,
		Even:     NewSolidColor(even),
		Odd:      NewSolidColor(odd),
	}
}

// Evaluate picks Even or Odd by the parity of the cell containing point
func (c *Checker) Evaluate(point core.Vec3) core.Vec3 {
	x := int(math.Floor(c.InvScale * point.X))
	y := int(math.Floor(c.InvScale * point.Y))
	z := int(math.Floor(c.InvScale * point.Z))

	if (x+y+z)%2 == 0 {
		return c.Even.Evaluate(point)
	}
	return c.Odd.Evaluate(point)
}
