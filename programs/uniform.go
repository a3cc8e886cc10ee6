package programs

import "github.com/stewi1014/glmandel/kernel"

// Uniforms mirrors the uniforms of the fragment shader. Fields tagged
// `uniform` are uploaded by name; Passes only drives CPU rendering.
type Uniforms struct {
	Width    float32 `uniform:"u_width"`
	Height   float32 `uniform:"u_height"`
	Render   int32   `uniform:"u_render"`
	Strategy int32   `uniform:"u_strategy"`
	ResetAux int32   `uniform:"u_reset_aux"`
	Texture  int32   `uniform:"u_texture"`
	Passes   int32
}

// Kernel builds the CPU kernel these uniforms describe.
func (u Uniforms) Kernel() (kernel.Kernel, error) {
	aux := kernel.AuxPreserve
	if u.ResetAux == 1 {
		aux = kernel.AuxReset
	}
	return kernel.New(
		int(u.Width), int(u.Height),
		kernel.WithStrategy(kernel.Strategy(u.Strategy)),
		kernel.WithAuxPolicy(aux),
	)
}

// Mode is the kernel mode selected by Render.
func (u Uniforms) Mode() kernel.Mode {
	return kernel.Mode(u.Render)
}
