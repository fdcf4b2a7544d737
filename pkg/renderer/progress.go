package renderer

import (
	"fmt"
	"io"
	"os"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stderr, keeping stdout
// free for image data
type DefaultLogger struct {
	out io.Writer
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(dl.out, format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{out: os.Stderr}
}

// NewWriterLogger creates a logger that writes to w
func NewWriterLogger(w io.Writer) core.Logger {
	return &DefaultLogger{out: w}
}

// ProgressReporter reports the number of scanlines still to be emitted
type ProgressReporter struct {
	logger    core.Logger
	totalRows int
	step      int
}

// NewProgressReporter creates a reporter that logs about ten times per frame
func NewProgressReporter(logger core.Logger, totalRows int) *ProgressReporter {
	step := totalRows / 10
	if step < 1 {
		step = 1
	}
	return &ProgressReporter{logger: logger, totalRows: totalRows, step: step}
}

// RowStarted is called before row j is emitted
func (p *ProgressReporter) RowStarted(j int) {
	if j%p.step != 0 {
		return
	}
	p.logger.Printf("Scanlines remaining: %d\n", p.totalRows-j)
}

// Done reports the end of the frame
func (p *ProgressReporter) Done() {
	p.logger.Printf("Done.\n")
}
