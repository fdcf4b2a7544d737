package renderer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/df07/go-weekend-raytracer/pkg/output"
)

// DefaultSeed is the base seed used when none is configured
const DefaultSeed int64 = 42

// RenderConfig controls how a frame is scheduled
type RenderConfig struct {
	NumWorkers int   // Row workers; 1 renders inline, <= 0 uses runtime.NumCPU()
	Seed       int64 // Base seed; row j draws from a stream seeded with Seed+j+1
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		NumWorkers: runtime.NumCPU(),
		Seed:       DefaultSeed,
	}
}

// Raytracer handles the rendering process
type Raytracer struct {
	camera     *Camera
	integrator integrator.Integrator
	config     RenderConfig
	logger     core.Logger
}

// NewRaytracer creates a new raytracer. A nil logger discards progress output.
func NewRaytracer(camera *Camera, integ integrator.Integrator, config RenderConfig, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Raytracer{
		camera:     camera,
		integrator: integ,
		config:     config,
		logger:     logger,
	}
}

// Camera returns the camera used for ray generation
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// numWorkers resolves the configured worker count
func (rt *Raytracer) numWorkers() int {
	if rt.config.NumWorkers <= 0 {
		return runtime.NumCPU()
	}
	return rt.config.NumWorkers
}

// rowSampler returns the independent random stream for row j
func (rt *Raytracer) rowSampler(j int) core.Sampler {
	return core.NewSeededSampler(rt.config.Seed + int64(j) + 1)
}

// SamplePixel averages SamplesPerPixel radiance estimates for pixel (i, j)
func (rt *Raytracer) SamplePixel(i, j int, world geometry.Hittable, sampler core.Sampler) core.Vec3 {
	pixelColor := core.Vec3{}
	maxDepth := rt.camera.MaxDepth()

	for sample := 0; sample < rt.camera.SamplesPerPixel(); sample++ {
		ray := rt.camera.GetRay(i, j, sampler)
		pixelColor = pixelColor.Add(rt.integrator.RayColor(ray, world, sampler, maxDepth))
	}

	return pixelColor.Multiply(rt.camera.ColorScale())
}

// RenderRow renders scanline j left to right with the row's own random stream
func (rt *Raytracer) RenderRow(j int, world geometry.Hittable) []core.Vec3 {
	sampler := rt.rowSampler(j)
	colors := make([]core.Vec3, rt.camera.ImageWidth())
	for i := range colors {
		colors[i] = rt.SamplePixel(i, j, world, sampler)
	}
	return colors
}

// Render traces the whole frame and emits every pixel to sink in raster order.
// Cancellation is observed between rows; on cancellation the sink has received
// a prefix of the frame and ctx.Err() is returned. Render does not close the sink.
func (rt *Raytracer) Render(ctx context.Context, world geometry.Hittable, sink output.Sink) (RenderStats, error) {
	start := time.Now()
	rt.camera.Initialize()

	width, height := rt.camera.ImageWidth(), rt.camera.ImageHeight()
	workers := rt.numWorkers()
	acc := &statsAccumulator{samplesPerPix: rt.camera.SamplesPerPixel()}

	if err := sink.Begin(width, height); err != nil {
		return RenderStats{}, fmt.Errorf("starting output: %w", err)
	}

	rt.logger.Printf("Rendering %dx%d, %d samples per pixel, max depth %d, %d workers\n",
		width, height, rt.camera.SamplesPerPixel(), rt.camera.MaxDepth(), workers)

	progress := NewProgressReporter(rt.logger, height)
	emit := func(j int, colors []core.Vec3) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress.RowStarted(j)
		for i, c := range colors {
			if err := sink.WriteColor(c); err != nil {
				return fmt.Errorf("writing pixel (%d, %d): %w", i, j, err)
			}
			acc.AddPixel(c)
		}
		return nil
	}

	var err error
	if workers == 1 {
		err = rt.renderSequential(ctx, world, height, emit)
	} else {
		err = rt.renderParallel(ctx, world, height, workers, emit)
	}

	stats := acc.Finish(width, height, workers, time.Since(start))
	if err != nil {
		return stats, err
	}

	progress.Done()
	return stats, nil
}

// renderSequential renders rows inline on the calling goroutine
func (rt *Raytracer) renderSequential(ctx context.Context, world geometry.Hittable, height int, emit func(int, []core.Vec3) error) error {
	for j := 0; j < height; j++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(j, rt.RenderRow(j, world)); err != nil {
			return err
		}
	}
	return nil
}

// renderParallel fans rows out to a worker pool and emits them in scan order
func (rt *Raytracer) renderParallel(ctx context.Context, world geometry.Hittable, height, workers int, emit func(int, []core.Vec3) error) error {
	workerCtx, cancel := context.WithCancel(ctx)
	pool := NewWorkerPool(rt, world, height, workers)
	pool.Start(workerCtx)
	defer pool.Stop()
	defer cancel()

	for j := 0; j < height; j++ {
		pool.SubmitTask(RowTask{Row: j})
	}

	buffer := newRowReorderBuffer()
	for emitted := 0; emitted < height; {
		result, ok := pool.GetResult()
		if !ok {
			return fmt.Errorf("worker pool closed after %d of %d rows", emitted, height)
		}
		if result.Err != nil {
			return result.Err
		}
		buffer.Put(result.Row, result.Colors)

		for {
			j, colors, ready := buffer.Next()
			if !ready {
				break
			}
			if err := emit(j, colors); err != nil {
				return err
			}
			emitted++
		}
	}
	return nil
}
