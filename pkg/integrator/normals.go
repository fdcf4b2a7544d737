package integrator

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// NormalIntegrator shades the first hit by its surface normal mapped from
// [-1,1] to [0,1]. Materials are ignored. Useful for checking geometry.
type NormalIntegrator struct {
	background BackgroundConfig
}

// NewNormalIntegrator creates a normal-visualization integrator
func NewNormalIntegrator(background BackgroundConfig) *NormalIntegrator {
	return &NormalIntegrator{background: background}
}

// RayColor returns 0.5*(N+1) at the closest hit, or the background on a miss
func (n *NormalIntegrator) RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler, depth int) core.Vec3 {
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := world.Hit(ray, hitInterval())
	if !isHit {
		return n.background.Background(ray)
	}

	return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
}
