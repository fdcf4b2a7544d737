package integrator

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// ShadowAcneEpsilon is the smallest t accepted for a hit, so a scattered ray
// does not re-intersect the surface it starts on
const ShadowAcneEpsilon = 0.001

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor estimates the radiance arriving along ray with at most depth bounces
	RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler, depth int) core.Vec3
}

// BackgroundConfig describes the sky gradient returned for rays that escape the scene
type BackgroundConfig struct {
	TopColor    core.Vec3 // Color for rays pointing straight up
	BottomColor core.Vec3 // Color for rays pointing straight down
}

// DefaultBackgroundConfig returns a white-to-sky-blue gradient
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{
		TopColor:    core.NewVec3(0.5, 0.7, 1.0),
		BottomColor: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Background returns the gradient color for a ray direction
func (b BackgroundConfig) Background(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	a := 0.5 * (unitDirection.Y + 1.0)
	return b.BottomColor.Lerp(b.TopColor, a)
}

// hitInterval is the valid range for every scene query
func hitInterval() core.Interval {
	return core.NewInterval(ShadowAcneEpsilon, math.Inf(1))
}

// New returns the integrator registered under name: "path" (the default),
// "iterative" or "normals"
func New(name string, background BackgroundConfig) (Integrator, bool) {
	switch name {
	case "", "path", "recursive":
		return NewPathTracingIntegrator(background), true
	case "iterative":
		return NewIterativeIntegrator(background), true
	case "normals":
		return NewNormalIntegrator(background), true
	default:
		return nil, false
	}
}
