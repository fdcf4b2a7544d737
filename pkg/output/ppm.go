package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// ErrNotStarted is returned when pixels are written before Begin
var ErrNotStarted = errors.New("sink not started")

// PPMSink writes the plain-text P3 variant of the portable pixmap format:
// a "P3", "width height", "255" header followed by one "r g b" line per pixel
type PPMSink struct {
	w       *bufio.Writer
	started bool
}

// NewPPMSink creates a PPM sink writing to w
func NewPPMSink(w io.Writer) *PPMSink {
	return &PPMSink{w: bufio.NewWriter(w)}
}

func (p *PPMSink) Begin(width, height int) error {
	if _, err := fmt.Fprintf(p.w, "P3\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("writing ppm header: %w", err)
	}
	p.started = true
	return nil
}

func (p *PPMSink) WriteColor(c core.Vec3) error {
	if !p.started {
		return ErrNotStarted
	}
	rgba := ToRGBA(c)
	_, err := fmt.Fprintf(p.w, "%d %d %d\n", rgba.R, rgba.G, rgba.B)
	return err
}

// Close flushes buffered pixels. The underlying writer stays open.
func (p *PPMSink) Close() error {
	return p.w.Flush()
}
