package output

import (
	"math"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

func TestToByte(t *testing.T) {
	tests := []struct {
		name     string
		linear   float64
		expected uint8
	}{
		{"Black", 0, 0},
		{"Negative", -0.5, 0},
		{"NaN", math.NaN(), 0},
		{"White", 1, 255},
		{"Overexposed", 4, 255},
		{"Infinite", math.Inf(1), 255},
		{"Quarter becomes half", 0.25, 128},
		{"Sixteenth becomes quarter", 0.0625, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToByte(tt.linear); got != tt.expected {
				t.Errorf("ToByte(%v) = %d, expected %d", tt.linear, got, tt.expected)
			}
		})
	}
}

func TestToRGBA(t *testing.T) {
	rgba := ToRGBA(core.NewVec3(1, 0.25, 0))
	if rgba.R != 255 || rgba.G != 128 || rgba.B != 0 || rgba.A != 255 {
		t.Errorf("Unexpected conversion %v", rgba)
	}
}
