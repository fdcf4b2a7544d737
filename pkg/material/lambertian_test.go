package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// fixedSampler returns the same values every call
type fixedSampler struct {
	v1 float64
	v2 core.Vec2
}

func (f fixedSampler) Get1D() float64 { return f.v1 }
func (f fixedSampler) Get2D() core.Vec2 {
	return f.v2
}
func (f fixedSampler) Get3D() core.Vec3 { return core.NewVec3(f.v2.X, f.v2.Y, f.v1) }

func TestLambertian_ScatterHemisphere(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.7, 0.9)
	lambertian := NewLambertian(albedo)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	normal := core.NewVec3(0, 0, 1)
	hit := &HitRecord{
		Point:  core.NewVec3(1, 2, 3),
		Normal: normal,
	}
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))

	for i := 0; i < 200; i++ {
		scatter, didScatter := lambertian.Scatter(ray, hit, sampler)
		if !didScatter {
			t.Fatal("Lambertian should always scatter")
		}
		if scatter.Scattered.Direction.Dot(normal) < 0 {
			t.Fatalf("Scattered direction %v points below the surface", scatter.Scattered.Direction)
		}
		if !scatter.Scattered.Origin.Equals(hit.Point) {
			t.Fatalf("Scattered ray should start at hit point, got %v", scatter.Scattered.Origin)
		}
		if !scatter.Attenuation.Equals(albedo) {
			t.Fatalf("Attenuation should equal albedo, got %v", scatter.Attenuation)
		}
	}
}

func TestLambertian_DegenerateDirection(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))

	// Sample (0, *) maps to (0,0,1) on the unit sphere; cancel it with a -Z normal
	sampler := fixedSampler{v2: core.NewVec2(0, 0)}
	normal := core.NewVec3(0, 0, -1)
	hit := &HitRecord{Normal: normal}

	scatter, _ := lambertian.Scatter(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), hit, sampler)
	if !scatter.Scattered.Direction.Equals(normal) {
		t.Errorf("Degenerate scatter should fall back to the normal, got %v", scatter.Scattered.Direction)
	}
}

func TestLambertian_Textured(t *testing.T) {
	checker := NewChecker(1.0, core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1))
	lambertian := NewTexturedLambertian(checker)
	sampler := core.NewSeededSampler(3)

	hit := &HitRecord{Point: core.NewVec3(1.5, 0.5, 0.5), Normal: core.NewVec3(0, 1, 0)}
	scatter, _ := lambertian.Scatter(core.NewRay(core.Vec3{}, core.NewVec3(0, -1, 0)), hit, sampler)
	if !scatter.Attenuation.Equals(core.NewVec3(0, 0, 1)) {
		t.Errorf("Expected odd checker color, got %v", scatter.Attenuation)
	}
}
