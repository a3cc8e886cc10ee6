package grid

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ToImage views a colour buffer as an image.Image. The y axis is flipped so
// the imaginary axis grows upwards on screen.
func ToImage(b *Buffer) image.Image {
	return &colourImage{buffer: b}
}

type colourImage struct {
	buffer *Buffer
}

func (i *colourImage) At(x, y int) color.Color {
	return ToNRGBA(i.buffer.At(x, i.buffer.Height-1-y))
}

func (i *colourImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.buffer.Width, i.buffer.Height)
}

func (i *colourImage) ColorModel() color.Model {
	return color.NRGBAModel
}

func (i *colourImage) Opaque() bool {
	return true
}

// Render copies a colour buffer into an 8-bit image, flipped like ToImage.
func Render(b *Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		row := b.Height - 1 - y
		for x := 0; x < b.Width; x++ {
			img.SetNRGBA(x, y, ToNRGBA(b.At(x, row)))
		}
	}
	return img
}

// ToNRGBA clamps each channel to [0, 1] the way a fixed point framebuffer
// does. NaN channels become 0.
func ToNRGBA(c mgl32.Vec4) color.NRGBA {
	return color.NRGBA{
		R: unorm8(c[0]),
		G: unorm8(c[1]),
		B: unorm8(c[2]),
		A: unorm8(c[3]),
	}
}

func unorm8(f float32) uint8 {
	if math.IsNaN(float64(f)) || f <= 0 {
		return 0
	}
	if f >= 1 {
		return 0xff
	}
	return uint8(f * 255)
}
