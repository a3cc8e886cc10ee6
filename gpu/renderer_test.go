package gpu

import (
	"context"
	"os"
	"runtime"
	"testing"

	"github.com/stewi1014/glmandel/grid"
	"github.com/stewi1014/glmandel/kernel"
	"github.com/stewi1014/glmandel/programs"
)

// withContext runs fn with a current GL context, skipping the test when no
// display is available.
func withContext(t *testing.T, fn func(t *testing.T)) {
	t.Helper()
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("no display")
	}

	if err := Init(); err != nil {
		t.Skip(err)
	}
	defer runtime.UnlockOSThread()
	defer Terminate()

	ctx, err := NewContext(false)
	if err != nil {
		t.Skip(err)
	}
	defer ctx.Destroy()

	fn(t)
}

func TestRendererMatchesEngine(t *testing.T) {
	withContext(t, func(t *testing.T) {
		const (
			width  = 32
			height = 24
			passes = 40
		)

		for i := 0; i < programs.NumPrograms(); i++ {
			p := programs.GetProgram(i)

			r, err := NewRenderer(p, width, height, kernel.AuxPreserve)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Destroy()

			k, _ := p.Uniforms(width, height, kernel.AuxPreserve, passes).Kernel()
			e, err := grid.NewEngine(k, 0)
			if err != nil {
				t.Fatal(err)
			}

			if err := r.Iterate(context.Background(), passes, nil); err != nil {
				t.Fatal(err)
			}
			if err := e.Iterate(context.Background(), passes, nil); err != nil {
				t.Fatal(err)
			}

			state, err := r.ReadState()
			if err != nil {
				t.Fatal(err)
			}
			if r.Passes() != passes {
				t.Errorf("Passes() = %d", r.Passes())
			}

			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					got, want := kernel.Escaped(state.At(x, y)), kernel.Escaped(e.State().At(x, y))
					if got != want {
						t.Errorf("%s: (%d, %d) escaped on gpu = %v, cpu = %v", p.Name, x, y, got, want)
					}
				}
			}

			colour, err := r.Colorize(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if colour.Width != width || colour.Height != height {
				t.Errorf("colour buffer is %dx%d", colour.Width, colour.Height)
			}
		}
	})
}

func TestRendererUploadSizeMismatch(t *testing.T) {
	withContext(t, func(t *testing.T) {
		r, err := NewRenderer(programs.GetProgram(0), 4, 4, kernel.AuxPreserve)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Destroy()

		buf, _ := grid.NewBuffer(5, 4)
		if err := r.Upload(buf); err != grid.ErrSizeMismatch {
			t.Errorf("Upload(5x4) error = %v", err)
		}
	})
}
