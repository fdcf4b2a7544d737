package integrator

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// IterativeIntegrator is the loop form of PathTracingIntegrator. It carries the
// product of attenuations instead of recursing and returns the same estimate
// for the same sample stream.
type IterativeIntegrator struct {
	background BackgroundConfig
}

// NewIterativeIntegrator creates a new iterative integrator
func NewIterativeIntegrator(background BackgroundConfig) *IterativeIntegrator {
	return &IterativeIntegrator{background: background}
}

// RayColor computes the color for a single ray
func (it *IterativeIntegrator) RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler, depth int) core.Vec3 {
	throughput := core.NewVec3(1, 1, 1)
	current := ray

	for ; depth > 0; depth-- {
		hit, isHit := world.Hit(current, hitInterval())
		if !isHit {
			return throughput.MultiplyVec(it.background.Background(current))
		}

		scatter, didScatter := hit.Material.Scatter(current, hit, sampler)
		if !didScatter {
			return core.Vec3{}
		}

		throughput = throughput.MultiplyVec(scatter.Attenuation)
		current = scatter.Scattered
	}

	return core.Vec3{}
}
