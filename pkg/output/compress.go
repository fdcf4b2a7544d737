package output

import (
	"fmt"
	"io"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/klauspost/compress/gzip"
)

// GzipPPMSink writes a gzip-compressed P3 stream. Plain-text PPM is large and
// compresses well, so this is the usual choice for archiving raw renders.
type GzipPPMSink struct {
	gz  *gzip.Writer
	ppm *PPMSink
}

// NewGzipPPMSink creates a compressed PPM sink writing to w
func NewGzipPPMSink(w io.Writer) (*GzipPPMSink, error) {
	gz, err := gzip.NewWriterLevel(w, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	return &GzipPPMSink{gz: gz, ppm: NewPPMSink(gz)}, nil
}

func (g *GzipPPMSink) Begin(width, height int) error {
	return g.ppm.Begin(width, height)
}

func (g *GzipPPMSink) WriteColor(c core.Vec3) error {
	return g.ppm.WriteColor(c)
}

// Close flushes the PPM text and finishes the gzip stream
func (g *GzipPPMSink) Close() error {
	if err := g.ppm.Close(); err != nil {
		return err
	}
	return g.gz.Close()
}
