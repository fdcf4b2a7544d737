package output

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Encoder writes a finished image
type Encoder func(w io.Writer, img image.Image) error

// JPEGQuality is the quality used for JPEG output
const JPEGQuality = 95

// encoderFor returns the image encoder for a raster format
func encoderFor(format Format) (Encoder, error) {
	switch format {
	case FormatPNG:
		return png.Encode, nil
	case FormatJPEG:
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
		}, nil
	case FormatBMP:
		return bmp.Encode, nil
	case FormatTIFF:
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not an image format", ErrUnsupportedFormat, format)
	}
}

// ImageSink collects pixels into an RGBA image and encodes it on Close.
// With a nil writer it only collects, which is how previews and thumbnails
// get at the frame.
type ImageSink struct {
	w       io.Writer
	encode  Encoder
	img     *image.RGBA
	width   int
	written int
}

// NewImageSink creates a sink that encodes to w in the given format
func NewImageSink(w io.Writer, format Format) (*ImageSink, error) {
	encode, err := encoderFor(format)
	if err != nil {
		return nil, err
	}
	return &ImageSink{w: w, encode: encode}, nil
}

// NewImageCollector creates a sink that keeps the frame in memory only
func NewImageCollector() *ImageSink {
	return &ImageSink{}
}

func (s *ImageSink) Begin(width, height int) error {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	s.width = width
	s.written = 0
	return nil
}

func (s *ImageSink) WriteColor(c core.Vec3) error {
	if s.img == nil {
		return ErrNotStarted
	}
	if s.written >= len(s.img.Pix)/4 {
		return fmt.Errorf("image sink full: %d pixels already written", s.written)
	}
	s.img.SetRGBA(s.written%s.width, s.written/s.width, ToRGBA(c))
	s.written++
	return nil
}

// Close encodes the collected image when a writer was given
func (s *ImageSink) Close() error {
	if s.w == nil || s.img == nil {
		return nil
	}
	if err := s.encode(s.w, s.img); err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	return nil
}

// Image returns the collected frame, or nil before Begin
func (s *ImageSink) Image() *image.RGBA {
	return s.img
}
