package gpu

import (
	"context"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/stewi1014/glmandel/grid"
	"github.com/stewi1014/glmandel/kernel"
	"github.com/stewi1014/glmandel/programs"
)

// fullscreen triangle covering clip space
var verticies = []float32{
	-3, -2,
	0, 3,
	3, -2,
}

// Renderer owns the GL resources for one grid: the shader program, two
// state textures with their framebuffers, and a colour target.
type Renderer struct {
	width  int
	height int

	vao              uint32
	vbo              uint32
	program          uint32
	uniformLocations map[string]int32
	uniforms         programs.Uniforms

	fbo        [2]uint32
	textures   [2]uint32
	readIndex  int
	writeIndex int

	colourFBO     uint32
	colourTexture uint32

	passes int
}

// NewRenderer compiles p and allocates width x height state buffers in the
// initial state. A Context must be current.
func NewRenderer(p programs.Program, width, height int, aux kernel.AuxPolicy) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, kernel.ErrInvalidDimensions
	}

	r := &Renderer{
		width:      width,
		height:     height,
		readIndex:  0,
		writeIndex: 1,
		uniforms:   p.Uniforms(width, height, aux, 0),
	}

	var err error
	r.program, err = linkProgram(p.VertexShader, p.FragmentShader)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", p.Name, err)
	}
	r.uniformLocations = uniformLocations(r.program, r.uniforms)

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verticies)*4, gl.Ptr(verticies), gl.STATIC_DRAW)

	vertexAttrib := uint32(gl.GetAttribLocation(r.program, gl.Str("vert\x00")))
	gl.EnableVertexAttribArray(vertexAttrib)
	gl.VertexAttribPointerWithOffset(vertexAttrib, 2, gl.FLOAT, false, 2*4, 0)

	for i := range r.fbo {
		r.fbo[i], r.textures[i], err = newTarget(width, height)
		if err != nil {
			r.Destroy()
			return nil, fmt.Errorf("state buffer %d: %w", i, err)
		}
	}

	r.colourFBO, r.colourTexture, err = newTarget(width, height)
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("colour buffer: %w", err)
	}

	if err := r.Reset(); err != nil {
		r.Destroy()
		return nil, err
	}

	return r, nil
}

// newTarget creates an RGBA32F texture sampled with NEAREST and a
// framebuffer rendering into it.
func newTarget(width, height int) (fbo, texture uint32, err error) {
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, texture, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		return fbo, texture, fmt.Errorf("framebuffer is not complete: 0x%x", status)
	}
	return fbo, texture, nil
}

func (r *Renderer) Passes() int { return r.passes }

// Reset uploads the initial state and clears the pass count.
func (r *Renderer) Reset() error {
	initial, err := grid.NewBuffer(r.width, r.height)
	if err != nil {
		return err
	}
	r.readIndex, r.writeIndex = 0, 1
	r.passes = 0
	return r.Upload(initial)
}

// Upload replaces the current state with buf.
func (r *Renderer) Upload(buf *grid.Buffer) error {
	if buf.Width != r.width || buf.Height != r.height {
		return grid.ErrSizeMismatch
	}

	gl.BindTexture(gl.TEXTURE_2D, r.textures[r.readIndex])
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.FLOAT, gl.Ptr(&buf.Texels[0][0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

func (r *Renderer) draw(fbo uint32, mode kernel.Mode) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))

	gl.UseProgram(r.program)
	r.uniforms.Render = int32(mode)
	r.uniforms.Texture = 0
	loadUniforms(&r.uniforms, r.uniformLocations)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.textures[r.readIndex])

	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Step runs one iteration pass and swaps the state buffers.
func (r *Renderer) Step() {
	r.draw(r.fbo[r.writeIndex], kernel.ModeIterate)
	r.readIndex, r.writeIndex = r.writeIndex, r.readIndex
	r.passes++
}

// Iterate runs n passes, calling onPass after each. ctx is checked between
// passes; a pass already submitted always completes.
func (r *Renderer) Iterate(ctx context.Context, n int, onPass func(pass int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pass %d: %w", r.passes+1, err)
		}

		r.Step()

		if onPass != nil {
			if err := onPass(r.passes); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadState reads the current state back into a new buffer.
func (r *Renderer) ReadState() (*grid.Buffer, error) {
	return r.read(r.fbo[r.readIndex])
}

// Colorize runs the colour pass and reads the result back.
func (r *Renderer) Colorize(ctx context.Context) (*grid.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.draw(r.colourFBO, kernel.ModeColorize)
	return r.read(r.colourFBO)
}

func (r *Renderer) read(fbo uint32) (*grid.Buffer, error) {
	buf, err := grid.NewBuffer(r.width, r.height)
	if err != nil {
		return nil, err
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 4)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.FLOAT, gl.Ptr(&buf.Texels[0][0]))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("reading framebuffer: gl error 0x%x", code)
	}
	return buf, nil
}

func (r *Renderer) Destroy() {
	gl.DeleteFramebuffers(2, &r.fbo[0])
	gl.DeleteTextures(2, &r.textures[0])
	if r.colourFBO != 0 {
		gl.DeleteFramebuffers(1, &r.colourFBO)
		gl.DeleteTextures(1, &r.colourTexture)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
}
