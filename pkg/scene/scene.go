// Package scene builds the worlds the renderer can trace.
package scene

import (
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string
	CameraConfig renderer.CameraConfig
	World        *geometry.HittableList      // Objects in the scene, read-only while rendering
	Background   integrator.BackgroundConfig // Sky gradient for escaped rays
	Integrator   string                      // Integrator name understood by integrator.New
}

// newScene creates an empty scene with the standard sky, applying the first
// camera override (if any) on top of the scene's own camera
func newScene(name string, cameraConfig renderer.CameraConfig, cameraOverrides []renderer.CameraConfig) *Scene {
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	return &Scene{
		Name:         name,
		CameraConfig: cameraConfig,
		World:        geometry.NewHittableList(),
		Background:   integrator.DefaultBackgroundConfig(),
	}
}

// Camera creates a camera for the scene's configuration
func (s *Scene) Camera() *renderer.Camera {
	return renderer.NewCamera(s.CameraConfig)
}

// NewIntegrator creates the scene's radiance estimator
func (s *Scene) NewIntegrator() (integrator.Integrator, bool) {
	return integrator.New(s.Integrator, s.Background)
}

// Add appends objects to the world
func (s *Scene) Add(objects ...geometry.Hittable) {
	for _, object := range objects {
		s.World.Add(object)
	}
}
