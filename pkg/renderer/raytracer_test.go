package renderer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/output"
)

// constantIntegrator returns the same color for every ray
type constantIntegrator struct {
	color core.Vec3
	calls atomic.Int64
}

func (c *constantIntegrator) RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler, depth int) core.Vec3 {
	c.calls.Add(1)
	return c.color
}

// recordingLogger keeps every formatted message
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

// cancelingSink cancels the render after a fixed number of pixels
type cancelingSink struct {
	output.MemorySink
	after  int
	cancel context.CancelFunc
}

func (s *cancelingSink) WriteColor(c core.Vec3) error {
	if err := s.MemorySink.WriteColor(c); err != nil {
		return err
	}
	if len(s.Pixels) == s.after {
		s.cancel()
	}
	return nil
}

// failingSink rejects every pixel
type failingSink struct {
	output.MemorySink
	err error
}

func (s *failingSink) WriteColor(c core.Vec3) error { return s.err }

func smallCameraConfig() CameraConfig {
	config := DefaultCameraConfig()
	config.Width = 12
	config.AspectRatio = 3.0 / 2.0
	config.SamplesPerPixel = 4
	config.MaxDepth = 5
	return config
}

func createTestWorld() geometry.Hittable {
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0))),
		geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)),
	)
}

func renderToMemory(t *testing.T, config CameraConfig, integ integrator.Integrator, workers int) *output.MemorySink {
	t.Helper()
	rt := NewRaytracer(NewCamera(config), integ, RenderConfig{NumWorkers: workers, Seed: DefaultSeed}, nil)
	sink := output.NewMemorySink()
	if _, err := rt.Render(context.Background(), createTestWorld(), sink); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return sink
}

func TestRender_AveragingConstantColor(t *testing.T) {
	color := core.NewVec3(0.5, 0.25, 0.75)

	for _, spp := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("%d samples", spp), func(t *testing.T) {
			config := smallCameraConfig()
			config.SamplesPerPixel = spp
			integ := &constantIntegrator{color: color}

			sink := renderToMemory(t, config, integ, 1)
			for idx, got := range sink.Pixels {
				if !got.Equals(color) {
					t.Fatalf("Pixel %d: expected %v exactly, got %v", idx, color, got)
				}
			}

			expectedCalls := int64(len(sink.Pixels) * spp)
			if integ.calls.Load() != expectedCalls {
				t.Errorf("Expected %d estimator calls, got %d", expectedCalls, integ.calls.Load())
			}
		})
	}

	// Non power-of-two counts agree to rounding
	config := smallCameraConfig()
	config.SamplesPerPixel = 10
	sink := renderToMemory(t, config, &constantIntegrator{color: core.NewVec3(0.1, 0.2, 0.3)}, 1)
	for _, got := range sink.Pixels {
		if !vecClose(got, core.NewVec3(0.1, 0.2, 0.3), 1e-12) {
			t.Fatalf("Expected (0.1, 0.2, 0.3), got %v", got)
		}
	}
}

func TestRender_RasterOrderAndRowSeeding(t *testing.T) {
	config := smallCameraConfig()
	world := createTestWorld()
	integ := integrator.NewPathTracingIntegrator(integrator.DefaultBackgroundConfig())
	rt := NewRaytracer(NewCamera(config), integ, RenderConfig{NumWorkers: 1, Seed: 7}, nil)

	sink := output.NewMemorySink()
	if _, err := rt.Render(context.Background(), world, sink); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	camera := rt.Camera()
	if sink.Width != camera.ImageWidth() || sink.Height != camera.ImageHeight() {
		t.Fatalf("Sink began with %dx%d, camera is %dx%d", sink.Width, sink.Height, camera.ImageWidth(), camera.ImageHeight())
	}
	if len(sink.Pixels) != sink.Width*sink.Height {
		t.Fatalf("Expected %d pixels, got %d", sink.Width*sink.Height, len(sink.Pixels))
	}

	// Replay each row's stream by hand; pixels must match in scan order
	for j := 0; j < sink.Height; j++ {
		sampler := core.NewSeededSampler(7 + int64(j) + 1)
		for i := 0; i < sink.Width; i++ {
			expected := rt.SamplePixel(i, j, world, sampler)
			if !sink.At(i, j).Equals(expected) {
				t.Fatalf("Pixel (%d,%d): expected %v, got %v", i, j, expected, sink.At(i, j))
			}
		}
	}
}

func TestRender_IdenticalAcrossWorkerCounts(t *testing.T) {
	config := smallCameraConfig()
	integ := integrator.NewPathTracingIntegrator(integrator.DefaultBackgroundConfig())

	reference := renderToMemory(t, config, integ, 1)
	for _, workers := range []int{2, 3, 8, 0} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			got := renderToMemory(t, config, integ, workers)
			if len(got.Pixels) != len(reference.Pixels) {
				t.Fatalf("Expected %d pixels, got %d", len(reference.Pixels), len(got.Pixels))
			}
			for idx := range reference.Pixels {
				if !got.Pixels[idx].Equals(reference.Pixels[idx]) {
					t.Fatalf("Pixel %d differs: %v vs %v", idx, got.Pixels[idx], reference.Pixels[idx])
				}
			}
		})
	}
}

func TestRender_DifferentSeedsDiffer(t *testing.T) {
	config := smallCameraConfig()
	integ := integrator.NewPathTracingIntegrator(integrator.DefaultBackgroundConfig())
	world := createTestWorld()

	render := func(seed int64) []core.Vec3 {
		rt := NewRaytracer(NewCamera(config), integ, RenderConfig{NumWorkers: 1, Seed: seed}, nil)
		sink := output.NewMemorySink()
		if _, err := rt.Render(context.Background(), world, sink); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		return sink.Pixels
	}

	a, b := render(1), render(2)
	for idx := range a {
		if !a[idx].Equals(b[idx]) {
			return
		}
	}
	t.Error("Expected different seeds to produce different noise")
}

func TestRender_ZeroDepthIsBlack(t *testing.T) {
	config := smallCameraConfig()
	config.MaxDepth = 0
	integ := integrator.NewPathTracingIntegrator(integrator.DefaultBackgroundConfig())

	sink := renderToMemory(t, config, integ, 4)
	for idx, got := range sink.Pixels {
		if !got.Equals(core.Vec3{}) {
			t.Fatalf("Pixel %d: expected black at depth 0, got %v", idx, got)
		}
	}
}

func TestRender_Stats(t *testing.T) {
	config := smallCameraConfig()
	color := core.NewVec3(0, 1, 0)
	rt := NewRaytracer(NewCamera(config), &constantIntegrator{color: color}, RenderConfig{NumWorkers: 2}, nil)

	stats, err := rt.Render(context.Background(), createTestWorld(), output.NewMemorySink())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	pixels := 12 * 8
	if stats.TotalPixels != pixels {
		t.Errorf("Expected %d pixels, got %d", pixels, stats.TotalPixels)
	}
	if stats.TotalSamples != pixels*4 {
		t.Errorf("Expected %d samples, got %d", pixels*4, stats.TotalSamples)
	}
	if stats.NumWorkers != 2 {
		t.Errorf("Expected 2 workers, got %d", stats.NumWorkers)
	}
	if math.Abs(stats.AverageLuminance-0.7152) > 1e-9 {
		t.Errorf("Expected average luminance 0.7152, got %f", stats.AverageLuminance)
	}
}

func TestRender_CancelledBeforeStart(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			rt := NewRaytracer(NewCamera(smallCameraConfig()), &constantIntegrator{color: core.NewVec3(1, 1, 1)}, RenderConfig{NumWorkers: workers}, nil)
			sink := output.NewMemorySink()
			_, err := rt.Render(ctx, createTestWorld(), sink)

			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Expected context.Canceled, got %v", err)
			}
			if len(sink.Pixels) != 0 {
				t.Errorf("Expected no pixels, got %d", len(sink.Pixels))
			}
		})
	}
}

func TestRender_CancelledBetweenRows(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			config := smallCameraConfig()
			sink := &cancelingSink{after: config.Width, cancel: cancel}
			rt := NewRaytracer(NewCamera(config), &constantIntegrator{color: core.NewVec3(1, 1, 1)}, RenderConfig{NumWorkers: workers}, nil)
			_, err := rt.Render(ctx, createTestWorld(), sink)

			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Expected context.Canceled, got %v", err)
			}
			if len(sink.Pixels) != config.Width {
				t.Errorf("Expected exactly one row (%d pixels), got %d", config.Width, len(sink.Pixels))
			}
		})
	}
}

func TestRender_SinkErrorPropagates(t *testing.T) {
	errDiskFull := errors.New("disk full")
	sink := &failingSink{err: errDiskFull}
	rt := NewRaytracer(NewCamera(smallCameraConfig()), &constantIntegrator{}, RenderConfig{NumWorkers: 3}, nil)

	_, err := rt.Render(context.Background(), createTestWorld(), sink)
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("Expected wrapped sink error, got %v", err)
	}
}

func TestRender_ReportsProgress(t *testing.T) {
	logger := &recordingLogger{}
	config := smallCameraConfig()
	rt := NewRaytracer(NewCamera(config), &constantIntegrator{}, RenderConfig{NumWorkers: 1}, logger)

	if _, err := rt.Render(context.Background(), createTestWorld(), output.NewMemorySink()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	all := strings.Join(logger.messages, "")
	if !strings.Contains(all, "Scanlines remaining: 8") {
		t.Errorf("Expected initial scanline count in %q", all)
	}
	last := logger.messages[len(logger.messages)-1]
	if last != "Done.\n" {
		t.Errorf("Expected final message Done., got %q", last)
	}
}
