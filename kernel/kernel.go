// Package kernel implements the per-pixel Mandelbrot escape-time kernel and
// the colour kernel that turns its final state into RGB.
//
// State lives in one 4-channel float32 texel per pixel:
//
//	[0] real part of z
//	[1] imaginary part of z
//	[2] iteration count
//	[3] 1, carried for RGBA buffers
//
// There is no magnitude bound. A point escapes when float32 arithmetic
// overflows and the iterate turns into NaN; NaN is the only escape signal
// the colour kernel reads.
package kernel

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidDimensions is returned for grids with a non-positive side.
var ErrInvalidDimensions = errors.New("grid width and height must be positive")

// Cell is one texel of the state buffer.
type Cell = mgl32.Vec4

// Kernel evaluates both passes for a fixed grid size. It holds no mutable
// state and is safe to share between goroutines.
type Kernel struct {
	width    float32
	height   float32
	strategy Strategy
	aux      AuxPolicy
}

type Option func(*Kernel)

// WithStrategy selects the colouring strategy used by Colorize.
func WithStrategy(s Strategy) Option {
	return func(k *Kernel) {
		k.strategy = s
	}
}

// WithAuxPolicy selects what happens to the count channel of escaped cells.
func WithAuxPolicy(p AuxPolicy) Option {
	return func(k *Kernel) {
		k.aux = p
	}
}

func New(width, height int, opts ...Option) (Kernel, error) {
	if width <= 0 || height <= 0 {
		return Kernel{}, ErrInvalidDimensions
	}

	k := Kernel{
		width:    float32(width),
		height:   float32(height),
		strategy: StrategyCount,
		aux:      AuxPreserve,
	}
	for _, opt := range opts {
		opt(&k)
	}
	return k, nil
}

func (k Kernel) Width() int           { return int(k.width) }
func (k Kernel) Height() int          { return int(k.height) }
func (k Kernel) Strategy() Strategy   { return k.strategy }
func (k Kernel) AuxPolicy() AuxPolicy { return k.aux }

// Point maps pixel coordinates onto [-2, 2]x[-2, 2].
func (k Kernel) Point(x, y int) (cReal, cImag float32) {
	cReal = float32(4*(float32(x)/k.width)) - 2
	cImag = float32(4*(float32(y)/k.height)) - 2
	return cReal, cImag
}

// Iterate advances the cell at (x, y) by one step of z' = z² + c.
//
// Products are converted to float32 before they are summed so the compiler
// cannot fuse them into FMA instructions; results then match bit for bit
// across architectures and with the GLSL kernel.
func (k Kernel) Iterate(x, y int, cell Cell) Cell {
	zReal, zImag := cell[0], cell[1]

	if Escaped(cell) {
		count := cell[2]
		if k.aux == AuxReset {
			count = 0
		}
		return Cell{zReal, zImag, count, 1}
	}

	cReal, cImag := k.Point(x, y)
	nextReal := float32(zReal*zReal) - float32(zImag*zImag) + cReal
	nextImag := float32(2*zReal*zImag) + cImag

	return Cell{nextReal, nextImag, cell[2] + 1, 1}
}

// Colorize maps a final state cell to RGBA with full opacity. The colour
// channels are not clamped.
func (k Kernel) Colorize(cell Cell) mgl32.Vec4 {
	var rgb mgl32.Vec3
	switch k.strategy {
	case StrategyAngle:
		rgb = AngleColour(cell)
	default:
		rgb = CountColour(cell)
	}
	return rgb.Vec4(1)
}

// Apply runs the pass selected by mode. Hosts that drive the kernel with a
// single flag, like the GPU shader, use this; everything else calls
// Iterate or Colorize directly.
func (k Kernel) Apply(mode Mode, x, y int, cell Cell) mgl32.Vec4 {
	if mode == ModeColorize {
		return k.Colorize(cell)
	}
	return k.Iterate(x, y, cell)
}

// Escaped reports whether the cell carries the NaN escape sentinel.
func Escaped(cell Cell) bool {
	return isNaN(cell[0]) || isNaN(cell[1])
}

func isNaN(f float32) bool {
	return math.IsNaN(float64(f))
}
