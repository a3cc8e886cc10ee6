package programs

import (
	_ "embed"
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stewi1014/glmandel/kernel"
)

var (
	ErrNoCPUImplementation = errors.New("program does not have a CPU implementation")
	ErrUnknownProgram      = errors.New("unknown program")
	ErrDuplicateProgram    = errors.New("program already registered")
)

var (
	NullColour = mgl32.Vec3{0.1, 0.1, 0.1}
)

//go:embed default.vert
var defaultVertexShader string

func NumPrograms() int {
	return len(programs)
}

func GetProgram(i int) Program {
	return programs[i]
}

func NewProgram(p Program) error {
	for _, existing := range programs {
		if existing.Name == p.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateProgram, p.Name)
		}
	}
	programs = append(programs, p)
	return nil
}

// Lookup finds a registered program by name.
func Lookup(name string) (Program, error) {
	for _, p := range programs {
		if p.Name == name {
			return p, nil
		}
	}
	return Program{}, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
}

// ForStrategy returns the first program rendering with the given strategy.
func ForStrategy(s kernel.Strategy) (Program, error) {
	for _, p := range programs {
		if p.Strategy == s {
			return p, nil
		}
	}
	return Program{}, fmt.Errorf("%w for strategy %v", ErrUnknownProgram, s)
}

var programs []Program

// PixelFunc computes the final colour of the pixel at pos without a state
// buffer, running every pass for that one pixel.
type PixelFunc func(uniforms Uniforms, pos mgl32.Vec2) mgl32.Vec3

type Program struct {
	Name           string
	Strategy       kernel.Strategy
	VertexShader   string
	FragmentShader string
	GetPixel       PixelFunc
}

// Uniforms returns the uniform values for rendering this program on a
// width x height grid.
func (p *Program) Uniforms(width, height int, aux kernel.AuxPolicy, passes int) Uniforms {
	u := Uniforms{
		Width:    float32(width),
		Height:   float32(height),
		Strategy: int32(p.Strategy),
		Passes:   int32(passes),
	}
	if aux == kernel.AuxReset {
		u.ResetAux = 1
	}
	return u
}

func (p *Program) GetImage(uniforms Uniforms) (Image, error) {
	if p.GetPixel == nil {
		return nil, ErrNoCPUImplementation
	}

	return &programImage{
		uniforms:  uniforms,
		bounds:    image.Rect(0, 0, int(uniforms.Width), int(uniforms.Height)),
		pixelFunc: p.GetPixel,
	}, nil
}

type Image interface {
	GetPixel(mgl32.Vec2) mgl32.Vec3
	Bounds() image.Rectangle
}

type programImage struct {
	uniforms  Uniforms
	bounds    image.Rectangle
	pixelFunc PixelFunc
}

func (i *programImage) GetPixel(pos mgl32.Vec2) mgl32.Vec3 {
	return i.pixelFunc(i.uniforms, pos)
}

func (i *programImage) Bounds() image.Rectangle {
	return i.bounds
}
