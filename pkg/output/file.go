package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format names an output encoding
type Format string

const (
	FormatPPM     Format = "ppm"
	FormatPPMGzip Format = "ppm.gz"
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
)

// ErrUnsupportedFormat is returned for unknown extensions and format names
var ErrUnsupportedFormat = errors.New("unsupported output format")

var extensionFormats = map[string]Format{
	".ppm":  FormatPPM,
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

var contentTypes = map[Format]string{
	FormatPPM:     "image/x-portable-pixmap",
	FormatPPMGzip: "application/gzip",
	FormatPNG:     "image/png",
	FormatJPEG:    "image/jpeg",
	FormatBMP:     "image/bmp",
	FormatTIFF:    "image/tiff",
}

// ParseFormat accepts a format name such as "png" or "jpg"
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if name == string(FormatPPMGzip) {
		return FormatPPMGzip, nil
	}
	if format, ok := extensionFormats["."+name]; ok {
		return format, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath picks the format from a file name's extension
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".ppm.gz") {
		return FormatPPMGzip, nil
	}
	ext := filepath.Ext(lower)
	if format, ok := extensionFormats[ext]; ok {
		return format, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(path))
}

// ContentType returns the MIME type for a format
func (f Format) ContentType() string {
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NewSink creates a sink encoding to w in the given format
func NewSink(w io.Writer, format Format) (Sink, error) {
	switch format {
	case FormatPPM:
		return NewPPMSink(w), nil
	case FormatPPMGzip:
		return NewGzipPPMSink(w)
	default:
		return NewImageSink(w, format)
	}
}

// fileSink closes the file after the encoder has flushed
type fileSink struct {
	Sink
	file *os.File
}

func (f *fileSink) Close() error {
	err := f.Sink.Close()
	if closeErr := f.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// CreateFileSink creates path (and its directory) and returns a sink for the
// format implied by the extension
func CreateFileSink(path string) (Sink, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	sink, err := NewSink(file, format)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &fileSink{Sink: sink, file: file}, nil
}
