package programs

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stewi1014/glmandel/kernel"
)

//go:embed shaders/mandelbrot.frag
var mandelbrotFragment string

func init() {
	NewProgram(Program{
		Name:           "mandelbrot",
		Strategy:       kernel.StrategyCount,
		VertexShader:   defaultVertexShader,
		FragmentShader: mandelbrotFragment,
		GetPixel:       escapePixel,
	})

	NewProgram(Program{
		Name:           "mandelbrot-angle",
		Strategy:       kernel.StrategyAngle,
		VertexShader:   defaultVertexShader,
		FragmentShader: mandelbrotFragment,
		GetPixel:       escapePixel,
	})
}

func escapePixel(uniforms Uniforms, pos mgl32.Vec2) mgl32.Vec3 {
	k, err := uniforms.Kernel()
	if err != nil {
		return NullColour
	}

	x, y := int(pos[0]), int(pos[1])
	cell := kernel.Cell{0, 0, 0, 1}
	for i := int32(0); i < uniforms.Passes; i++ {
		cell = k.Iterate(x, y, cell)
	}

	return k.Colorize(cell).Vec3()
}
