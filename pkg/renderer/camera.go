package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// CameraConfig contains all parameters needed to create a camera
type CameraConfig struct {
	AspectRatio     float64   // Target width / height
	Width           int       // Image width in pixels
	SamplesPerPixel int       // Random samples averaged per pixel
	MaxDepth        int       // Maximum number of ray bounces into the scene
	VFov            float64   // Vertical field of view in degrees
	LookFrom        core.Vec3 // Point the camera is looking from
	LookAt          core.Vec3 // Point the camera is looking at
	Up              core.Vec3 // Camera-relative "up" direction
	DefocusAngle    float64   // Cone angle of rays through each pixel in degrees (0 = pinhole)
	FocusDistance   float64   // Distance from LookFrom to the plane of perfect focus
}

// DefaultCameraConfig returns sensible default values
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		AspectRatio:     1.0,
		Width:           100,
		SamplesPerPixel: 10,
		MaxDepth:        10,
		VFov:            90,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		DefocusAngle:    0,
		FocusDistance:   10,
	}
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base

	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.LookFrom != (core.Vec3{}) {
		result.LookFrom = override.LookFrom
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		result.Up = override.Up
	}
	if override.DefocusAngle != 0 {
		result.DefocusAngle = override.DefocusAngle
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}

	return result
}

// Validate rejects configurations the camera cannot derive a frame from.
// The camera itself never checks; callers validate at the boundary.
func (c CameraConfig) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("image width must be positive, got %d", c.Width)
	}
	if c.AspectRatio <= 0 || math.IsNaN(c.AspectRatio) || math.IsInf(c.AspectRatio, 0) {
		return fmt.Errorf("aspect ratio must be a positive number, got %v", c.AspectRatio)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("samples per pixel must be positive, got %d", c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	if c.VFov <= 0 || c.VFov >= 180 {
		return fmt.Errorf("vertical field of view must be in (0, 180) degrees, got %v", c.VFov)
	}
	if c.FocusDistance <= 0 {
		return fmt.Errorf("focus distance must be positive, got %v", c.FocusDistance)
	}
	if c.DefocusAngle < 0 || c.DefocusAngle >= 180 {
		return fmt.Errorf("defocus angle must be in [0, 180) degrees, got %v", c.DefocusAngle)
	}

	view := c.LookFrom.Subtract(c.LookAt)
	if view.NearZero() {
		return fmt.Errorf("look-from and look-at must differ, both are %v", c.LookFrom)
	}
	if c.Up.Cross(view).NearZero() {
		return fmt.Errorf("up vector %v is parallel to the view direction", c.Up)
	}

	return nil
}

// Camera generates rays for rendering
type Camera struct {
	config CameraConfig

	// Derived by Initialize
	imageHeight  int       // Rendered image height
	colorScale   float64   // Color scale factor for a sum of pixel samples
	center       core.Vec3 // Camera center
	pixel00      core.Vec3 // Location of pixel (0,0)
	pixelDeltaU  core.Vec3 // Offset to the pixel to the right
	pixelDeltaV  core.Vec3 // Offset to the pixel below
	u, v, w      core.Vec3 // Camera frame basis vectors
	defocusDiskU core.Vec3 // Defocus disk horizontal radius
	defocusDiskV core.Vec3 // Defocus disk vertical radius
}

// NewCamera creates a camera and derives its viewing geometry
func NewCamera(config CameraConfig) *Camera {
	c := &Camera{config: config}
	c.Initialize()
	return c
}

// Initialize derives the image size, basis and sampling geometry from the config
func (c *Camera) Initialize() {
	cfg := c.config

	c.imageHeight = int(float64(cfg.Width) / cfg.AspectRatio)
	if c.imageHeight < 1 {
		c.imageHeight = 1
	}

	c.colorScale = 1.0 / float64(cfg.SamplesPerPixel)

	c.center = cfg.LookFrom

	// Viewport dimensions at the focus plane
	theta := core.DegreesToRadians(cfg.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * cfg.FocusDistance
	viewportWidth := viewportHeight * (float64(cfg.Width) / float64(c.imageHeight))

	// Orthonormal camera frame; w points away from the scene
	c.w = cfg.LookFrom.Subtract(cfg.LookAt).Normalize()
	c.u = cfg.Up.Cross(c.w).Normalize()
	c.v = c.w.Cross(c.u)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := c.u.Multiply(viewportWidth)
	viewportV := c.v.Negate().Multiply(viewportHeight)

	c.pixelDeltaU = viewportU.Multiply(1.0 / float64(cfg.Width))
	c.pixelDeltaV = viewportV.Multiply(1.0 / float64(c.imageHeight))

	viewportUpperLeft := c.center.
		Subtract(c.w.Multiply(cfg.FocusDistance)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	c.pixel00 = viewportUpperLeft.Add(c.pixelDeltaU.Add(c.pixelDeltaV).Multiply(0.5))

	defocusRadius := cfg.FocusDistance * math.Tan(core.DegreesToRadians(cfg.DefocusAngle/2))
	c.defocusDiskU = c.u.Multiply(defocusRadius)
	c.defocusDiskV = c.v.Multiply(defocusRadius)
}

// GetRay returns a ray from the defocus disk through a random point in pixel (i, j)
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := core.SampleSquare(sampler.Get2D())
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y))

	rayOrigin := c.center
	if c.config.DefocusAngle > 0 {
		rayOrigin = c.defocusDiskSample(sampler)
	}

	return core.NewRay(rayOrigin, pixelSample.Subtract(rayOrigin))
}

// defocusDiskSample returns a random point on the camera defocus disk
func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Vec3 {
	p := core.SamplePointInUnitDisk(sampler.Get2D())
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

// Config returns the camera configuration
func (c *Camera) Config() CameraConfig { return c.config }

// ImageWidth returns the rendered image width in pixels
func (c *Camera) ImageWidth() int { return c.config.Width }

// ImageHeight returns the rendered image height in pixels
func (c *Camera) ImageHeight() int { return c.imageHeight }

// SamplesPerPixel returns the number of samples per pixel
func (c *Camera) SamplesPerPixel() int { return c.config.SamplesPerPixel }

// MaxDepth returns the bounce limit
func (c *Camera) MaxDepth() int { return c.config.MaxDepth }

// ColorScale returns 1 / samples per pixel
func (c *Camera) ColorScale() float64 { return c.colorScale }

// Center returns the camera center
func (c *Camera) Center() core.Vec3 { return c.center }

// Pixel00 returns the location of the center of the upper-left pixel
func (c *Camera) Pixel00() core.Vec3 { return c.pixel00 }

// PixelDeltas returns the offsets to the next pixel right and down
func (c *Camera) PixelDeltas() (deltaU, deltaV core.Vec3) { return c.pixelDeltaU, c.pixelDeltaV }

// Basis returns the camera frame vectors
func (c *Camera) Basis() (u, v, w core.Vec3) { return c.u, c.v, c.w }

// DefocusDisk returns the defocus disk radius vectors
func (c *Camera) DefocusDisk() (diskU, diskV core.Vec3) { return c.defocusDiskU, c.defocusDiskV }
