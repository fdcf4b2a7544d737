// Package output turns the renderer's stream of linear pixel colors into image files.
package output

import "github.com/df07/go-weekend-raytracer/pkg/core"

// Sink receives one averaged linear color per pixel in raster order:
// rows top to bottom, pixels left to right within a row.
// Sinks own tone mapping and quantization.
type Sink interface {
	// Begin is called once before the first pixel with the image dimensions
	Begin(width, height int) error
	// WriteColor appends the next pixel
	WriteColor(c core.Vec3) error
	// Close flushes any buffered output. It does not close the underlying writer
	// unless the sink opened it.
	Close() error
}

// MemorySink keeps the emitted colors in memory, mainly for tests and previews
type MemorySink struct {
	Width  int
	Height int
	Pixels []core.Vec3
	Closed bool
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Begin(width, height int) error {
	m.Width = width
	m.Height = height
	m.Pixels = make([]core.Vec3, 0, width*height)
	return nil
}

func (m *MemorySink) WriteColor(c core.Vec3) error {
	m.Pixels = append(m.Pixels, c)
	return nil
}

func (m *MemorySink) Close() error {
	m.Closed = true
	return nil
}

// At returns the color written for pixel (i, j)
func (m *MemorySink) At(i, j int) core.Vec3 {
	return m.Pixels[j*m.Width+i]
}
