package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// countCeiling caps the iteration count fed to the count strategy.
const countCeiling = 100

var (
	Black = mgl32.Vec3{0, 0, 0}
	White = mgl32.Vec3{1, 1, 1}
)

// CountColour colours escaped cells by their iteration count and leaves the
// interior black.
func CountColour(cell Cell) mgl32.Vec3 {
	if !Escaped(cell) {
		return Black
	}
	return HSLToRGB(CountHSL(cell[2]))
}

// CountHSL derives hue, saturation and lightness from an iteration count.
// The hue is wrapped by a single subtraction, so counts near the ceiling
// still produce hues above 360.
func CountHSL(count float32) (h, s, l float32) {
	n := min(countCeiling, count)
	logRatio := float32(math.Log(float64(0.5*n)) / math.Log(countCeiling))

	h = 2.5 * logRatio * 360
	if h >= 360 {
		h -= 360
	}

	return h, 0.75, 2 * logRatio
}

// AngleColour colours interior cells by the direction and length of their
// final iterate. Escaped cells are white.
func AngleColour(cell Cell) mgl32.Vec3 {
	if Escaped(cell) {
		return White
	}
	return HSLToRGB(AngleHSL(cell[0], cell[1]))
}

// AngleHSL returns the angle of (zReal, zImag) in degrees in [0, 360) as hue
// and maps the magnitude from [0, inf) onto saturation in [0, 1).
func AngleHSL(zReal, zImag float32) (h, s, l float32) {
	var angle float64
	if zReal == 0 {
		if zImag < 0 {
			angle = math.Pi
		}
	} else {
		angle = math.Atan(float64(zImag / zReal))
		if zReal < 0 {
			angle += math.Pi
		} else if angle < 0 {
			angle += 2 * math.Pi
		}
	}

	magnitude := float32(math.Sqrt(float64(float32(zReal*zReal) + float32(zImag*zImag))))

	h = float32(angle * 180 / math.Pi)
	s = 1 - 1/(magnitude+1)
	return h, s, 0.5
}

// HSLToRGB converts with the six-sector algorithm. h is in degrees, s and l
// in [0, 1]. Hues outside [0, 300) land in the last sector.
func HSLToRGB(h, s, l float32) mgl32.Vec3 {
	c := (1 - abs(2*l-1)) * s
	x := c * (1 - abs(floorMod(h/60, 2)-1))
	m := l - c/2

	var prime mgl32.Vec3
	switch {
	case h >= 0 && h < 60:
		prime = mgl32.Vec3{c, x, 0}
	case h >= 60 && h < 120:
		prime = mgl32.Vec3{x, c, 0}
	case h >= 120 && h < 180:
		prime = mgl32.Vec3{0, c, x}
	case h >= 180 && h < 240:
		prime = mgl32.Vec3{0, x, c}
	case h >= 240 && h < 300:
		prime = mgl32.Vec3{x, 0, c}
	default:
		prime = mgl32.Vec3{c, 0, x}
	}

	return prime.Add(mgl32.Vec3{m, m, m})
}

func abs(f float32) float32 {
	return float32(math.Abs(float64(f)))
}

// floorMod matches GLSL mod: the result takes the sign of y.
func floorMod(x, y float32) float32 {
	return x - y*float32(math.Floor(float64(x/y)))
}
