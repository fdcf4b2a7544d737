package output

import (
	"errors"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// MultiSink duplicates every pixel to several sinks
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink writing to all of sinks in order
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Begin(width, height int) error {
	for _, s := range m.sinks {
		if err := s.Begin(width, height); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) WriteColor(c core.Vec3) error {
	for _, s := range m.sinks {
		if err := s.WriteColor(c); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and reports all failures
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
