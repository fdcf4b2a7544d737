package renderer

import (
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width            int           // Image width in pixels
	Height           int           // Image height in pixels
	TotalPixels      int           // Pixels emitted to the sink
	TotalSamples     int           // Camera rays traced
	SamplesPerPixel  int           // Samples averaged per pixel
	NumWorkers       int           // Goroutines used for rows
	Duration         time.Duration // Wall-clock time of the render
	AverageLuminance float64       // Mean linear luminance of emitted pixels
}

// statsAccumulator collects per-pixel statistics in emission order
type statsAccumulator struct {
	pixels        int
	luminanceSum  float64
	samplesPerPix int
}

// AddPixel records one emitted pixel color
func (s *statsAccumulator) AddPixel(color core.Vec3) {
	s.pixels++
	s.luminanceSum += color.Luminance()
}

// Finish builds the final stats
func (s *statsAccumulator) Finish(width, height, workers int, elapsed time.Duration) RenderStats {
	stats := RenderStats{
		Width:           width,
		Height:          height,
		TotalPixels:     s.pixels,
		TotalSamples:    s.pixels * s.samplesPerPix,
		SamplesPerPixel: s.samplesPerPix,
		NumWorkers:      workers,
		Duration:        elapsed,
	}
	if s.pixels > 0 {
		stats.AverageLuminance = s.luminanceSum / float64(s.pixels)
	}
	return stats
}

// SamplesPerSecond returns the camera-ray throughput of the render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Duration.Seconds()
}
