package grid

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stewi1014/glmandel/kernel"
)

// Engine runs the kernel over a Pair on the CPU.
type Engine struct {
	kernel  kernel.Kernel
	pair    *Pair
	workers int
	passes  int
}

func NewEngine(k kernel.Kernel, workers int) (*Engine, error) {
	pair, err := NewPair(k.Width(), k.Height())
	if err != nil {
		return nil, err
	}

	return &Engine{
		kernel:  k,
		pair:    pair,
		workers: workers,
	}, nil
}

func (e *Engine) Kernel() kernel.Kernel { return e.kernel }

// Passes is the number of iteration passes completed since the last reset.
func (e *Engine) Passes() int { return e.passes }

// State is the buffer the last completed pass wrote.
func (e *Engine) State() *Buffer { return e.pair.Src() }

func (e *Engine) Reset() {
	e.pair.Reset()
	e.passes = 0
}

// Load replaces the current state. The buffer is copied.
func (e *Engine) Load(state *Buffer) error {
	if err := e.pair.Src().CopyFrom(state); err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	return nil
}

// Step runs one iteration pass. A cancelled pass leaves the state as it was.
func (e *Engine) Step(ctx context.Context) error {
	err := Run(ctx, e.workers, e.pair.Src(), e.pair.Dst(), e.kernel.Iterate)
	if err != nil {
		return err
	}

	e.pair.Swap()
	e.passes++
	return nil
}

// Iterate runs n passes, calling onPass after each with the total pass
// count. onPass may be nil; an error from it stops iteration.
func (e *Engine) Iterate(ctx context.Context, n int, onPass func(pass int) error) error {
	for i := 0; i < n; i++ {
		if err := e.Step(ctx); err != nil {
			return fmt.Errorf("pass %d: %w", e.passes+1, err)
		}

		if onPass != nil {
			if err := onPass(e.passes); err != nil {
				return err
			}
		}
	}
	return nil
}

// Colorize runs the colour pass over the current state into a new buffer.
func (e *Engine) Colorize(ctx context.Context) (*Buffer, error) {
	state := e.pair.Src()
	out, err := NewBuffer(state.Width, state.Height)
	if err != nil {
		return nil, err
	}

	err = Run(ctx, e.workers, state, out, func(x, y int, v mgl32.Vec4) mgl32.Vec4 {
		return e.kernel.Colorize(v)
	})
	if err != nil {
		return nil, fmt.Errorf("colour pass: %w", err)
	}
	return out, nil
}
