// Package grid is the CPU host for the escape-time kernel: float texel
// buffers, the double buffer passes ping-pong between, and a parallel map
// that runs one kernel pass over a whole grid.
package grid

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stewi1014/glmandel/kernel"
)

var (
	ErrSizeMismatch   = errors.New("buffer dimensions do not match")
	ErrAliasedBuffers = errors.New("source and destination share storage")
)

// Buffer is a row-major grid of RGBA float32 texels. Row 0 is the bottom
// row, as in a GL framebuffer.
type Buffer struct {
	Width  int
	Height int
	Texels []mgl32.Vec4
}

// NewBuffer returns a buffer in the initial iteration state: z = 0, count 0.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, kernel.ErrInvalidDimensions
	}

	b := &Buffer{
		Width:  width,
		Height: height,
		Texels: make([]mgl32.Vec4, width*height),
	}
	b.Reset()
	return b, nil
}

func (b *Buffer) Index(x, y int) int {
	return y*b.Width + x
}

func (b *Buffer) At(x, y int) mgl32.Vec4 {
	return b.Texels[b.Index(x, y)]
}

func (b *Buffer) Set(x, y int, v mgl32.Vec4) {
	b.Texels[b.Index(x, y)] = v
}

// Reset puts every texel back into the initial iteration state.
func (b *Buffer) Reset() {
	for i := range b.Texels {
		b.Texels[i] = kernel.Cell{0, 0, 0, 1}
	}
}

func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Texels: make([]mgl32.Vec4, len(b.Texels)),
	}
	copy(c.Texels, b.Texels)
	return c
}

// CopyFrom overwrites b with the texels of src.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if !b.sameSize(src) {
		return ErrSizeMismatch
	}
	copy(b.Texels, src.Texels)
	return nil
}

// Escaped counts texels carrying the escape sentinel.
func (b *Buffer) Escaped() int {
	n := 0
	for _, v := range b.Texels {
		if kernel.Escaped(v) {
			n++
		}
	}
	return n
}

func (b *Buffer) sameSize(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && len(b.Texels) == len(o.Texels)
}

func (b *Buffer) aliases(o *Buffer) bool {
	if b == o {
		return true
	}
	return len(b.Texels) > 0 && len(o.Texels) > 0 && &b.Texels[0] == &o.Texels[0]
}
