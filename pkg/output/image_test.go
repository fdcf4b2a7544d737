package output

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestImageSink_LosslessFormats(t *testing.T) {
	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		FormatPNG:  func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		FormatBMP:  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
		FormatTIFF: func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
	}

	for format, decode := range decoders {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			sink, err := NewImageSink(&buf, format)
			if err != nil {
				t.Fatalf("NewImageSink failed: %v", err)
			}
			writeFrame(t, sink, 2, 1, core.NewVec3(1, 0, 0), core.NewVec3(0, 0.25, 1))

			img, err := decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
				t.Fatalf("Expected 2x1 image, got %v", img.Bounds())
			}

			got := color.RGBAModel.Convert(img.At(1, 0)).(color.RGBA)
			expected := color.RGBA{R: 0, G: 128, B: 255, A: 255}
			if got != expected {
				t.Errorf("Expected %v at (1,0), got %v", expected, got)
			}
		})
	}
}

func TestImageSink_JPEG(t *testing.T) {
	var buf bytes.Buffer
	sink, err := NewImageSink(&buf, FormatJPEG)
	if err != nil {
		t.Fatalf("NewImageSink failed: %v", err)
	}
	colors := make([]core.Vec3, 16*8)
	writeFrame(t, sink, 16, 8, colors...)

	cfg, err := jpeg.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("Output is not a JPEG: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("Expected 16x8, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestImageSink_RasterOrder(t *testing.T) {
	collector := NewImageCollector()
	writeFrame(t, collector, 2, 2,
		core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 1), core.NewVec3(1, 1, 1))

	img := collector.Image()
	if img.RGBAAt(1, 0).G != 255 {
		t.Errorf("Second pixel should land at (1,0), got %v", img.RGBAAt(1, 0))
	}
	if img.RGBAAt(0, 1).B != 255 {
		t.Errorf("Third pixel should land at (0,1), got %v", img.RGBAAt(0, 1))
	}
}

func TestImageSink_Overflow(t *testing.T) {
	collector := NewImageCollector()
	if err := collector.Begin(1, 1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := collector.WriteColor(core.Vec3{}); err != nil {
		t.Fatalf("First pixel failed: %v", err)
	}
	if err := collector.WriteColor(core.Vec3{}); err == nil {
		t.Error("Expected an error writing past the end of the frame")
	}
}

func TestNewImageSink_RejectsPPM(t *testing.T) {
	if _, err := NewImageSink(&bytes.Buffer{}, FormatPPM); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	thumb := Thumbnail(img, 10)
	if thumb.Bounds().Dx() != 10 || thumb.Bounds().Dy() != 5 {
		t.Errorf("Expected 10x5 thumbnail, got %v", thumb.Bounds())
	}

	small := image.NewRGBA(image.Rect(0, 0, 4, 2))
	if got := Thumbnail(small, 10); got.Bounds() != small.Bounds() {
		t.Errorf("Images that fit should keep their size, got %v", got.Bounds())
	}

	var buf bytes.Buffer
	if err := WriteThumbnail(&buf, img, 10); err != nil {
		t.Fatalf("WriteThumbnail failed: %v", err)
	}
	if _, err := png.DecodeConfig(&buf); err != nil {
		t.Errorf("Thumbnail is not a PNG: %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
		wantErr  bool
	}{
		{"image.ppm", FormatPPM, false},
		{"out/render.PPM.GZ", FormatPPMGzip, false},
		{"render.png", FormatPNG, false},
		{"render.jpg", FormatJPEG, false},
		{"render.jpeg", FormatJPEG, false},
		{"render.bmp", FormatBMP, false},
		{"render.tif", FormatTIFF, false},
		{"render.tiff", FormatTIFF, false},
		{"render.gif", "", true},
		{"render", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("FormatFromPath(%q) = %q, %v; expected %q", tt.path, got, err, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for name, expected := range map[string]Format{"png": FormatPNG, "JPG": FormatJPEG, ".ppm": FormatPPM, "ppm.gz": FormatPPMGzip} {
		got, err := ParseFormat(name)
		if err != nil || got != expected {
			t.Errorf("ParseFormat(%q) = %q, %v; expected %q", name, got, err, expected)
		}
	}
	if _, err := ParseFormat("exr"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if FormatPNG.ContentType() != "image/png" {
		t.Errorf("Unexpected content type %q", FormatPNG.ContentType())
	}
}

func TestCreateFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "render.ppm")
	sink, err := CreateFileSink(path)
	if err != nil {
		t.Fatalf("CreateFileSink failed: %v", err)
	}
	writeFrame(t, sink, 1, 1, core.NewVec3(1, 1, 1))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading output failed: %v", err)
	}
	if string(data) != "P3\n1 1\n255\n255 255 255\n" {
		t.Errorf("Unexpected file contents %q", string(data))
	}

	if _, err := CreateFileSink(filepath.Join(t.TempDir(), "render.webp")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}
