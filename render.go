package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/stewi1014/glmandel/export"
	"github.com/stewi1014/glmandel/gpu"
	"github.com/stewi1014/glmandel/grid"
	"github.com/stewi1014/glmandel/kernel"
	"github.com/stewi1014/glmandel/options"
	"github.com/stewi1014/glmandel/programs"
	"github.com/stewi1014/glmandel/term"
)

// backend runs passes over a grid on the CPU or GPU.
type backend interface {
	Iterate(ctx context.Context, n int, onPass func(pass int) error) error
	Colorize(ctx context.Context) (*grid.Buffer, error)
	State() (*grid.Buffer, error)
	Close()
}

type cpuBackend struct {
	*grid.Engine
}

func (b cpuBackend) State() (*grid.Buffer, error) { return b.Engine.State(), nil }
func (b cpuBackend) Close()                        {}

type gpuBackend struct {
	*gpu.Renderer
	glContext *gpu.Context
}

func (b gpuBackend) State() (*grid.Buffer, error) { return b.ReadState() }

func (b gpuBackend) Close() {
	b.Destroy()
	b.glContext.Destroy()
	gpu.Terminate()
}

func newBackend(opts *options.Options) (backend, error) {
	switch opts.Backend {
	case options.GPU:
		program, err := programs.ForStrategy(opts.Strategy)
		if err != nil {
			return nil, err
		}

		if err := gpu.Init(); err != nil {
			return nil, err
		}
		glContext, err := gpu.NewContext(opts.Debug)
		if err != nil {
			gpu.Terminate()
			return nil, err
		}
		renderer, err := gpu.NewRenderer(program, opts.Width, opts.Height, opts.Aux)
		if err != nil {
			glContext.Destroy()
			gpu.Terminate()
			return nil, err
		}
		return gpuBackend{Renderer: renderer, glContext: glContext}, nil

	default:
		k, err := kernel.New(opts.Width, opts.Height,
			kernel.WithStrategy(opts.Strategy),
			kernel.WithAuxPolicy(opts.Aux),
		)
		if err != nil {
			return nil, err
		}
		engine, err := grid.NewEngine(k, opts.Workers)
		if err != nil {
			return nil, err
		}
		return cpuBackend{Engine: engine}, nil
	}
}

// frameSink receives the colour pass after every iteration pass.
type frameSink func(pass int, img *image.NRGBA) error

type result struct {
	Image   *image.NRGBA
	Escaped int
	Passes  int
}

// run renders opts.Passes passes, feeding every pass to sinks, and writes
// the final colour pass to opts.Output.
func run(ctx context.Context, opts *options.Options, sinks ...frameSink) (res *result, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b, err := newBackend(opts)
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", opts.Backend, err)
	}
	defer b.Close()

	if opts.Record != "" {
		recorder := export.NewRecorder(export.RecorderOptions{
			Path:       opts.Record,
			Width:      opts.Width,
			Height:     opts.Height,
			FPS:        opts.FPS,
			FFmpegPath: opts.FFmpegPath,
		})
		defer func() {
			err = errors.Join(err, recorder.Close())
		}()
		sinks = append(sinks, func(_ int, img *image.NRGBA) error {
			return recorder.WriteFrame(img)
		})
	}

	if opts.Term {
		screen, err := term.Open()
		if err != nil {
			return nil, fmt.Errorf("opening terminal: %w", err)
		}
		defer screen.Fini()
		go term.Watch(ctx, screen, cancel)

		preview := term.NewPreview(screen)
		sinks = append(sinks, func(pass int, img *image.NRGBA) error {
			preview.SetStatus(fmt.Sprintf("pass %d/%d  q to stop", pass, opts.Passes))
			preview.Draw(img)
			return nil
		})
	}

	onPass := func(pass int) error {
		if !opts.Term && logPass(pass, opts.Passes) {
			log.Printf("pass %d/%d", pass, opts.Passes)
		}
		if len(sinks) == 0 {
			return nil
		}

		colour, err := b.Colorize(ctx)
		if err != nil {
			return err
		}
		img := grid.Render(colour)
		for _, sink := range sinks {
			if err := sink(pass, img); err != nil {
				return err
			}
		}
		return nil
	}

	if err := b.Iterate(ctx, opts.Passes, onPass); err != nil {
		return nil, err
	}

	state, err := b.State()
	if err != nil {
		return nil, err
	}
	colour, err := b.Colorize(ctx)
	if err != nil {
		return nil, err
	}

	res = &result{
		Image:   grid.Render(colour),
		Escaped: state.Escaped(),
		Passes:  opts.Passes,
	}
	if err := export.Save(opts.Output, res.Image); err != nil {
		return nil, fmt.Errorf("saving %s: %w", opts.Output, err)
	}
	return res, nil
}

// logPass reports whether pass is one of ten evenly spaced progress points.
func logPass(pass, passes int) bool {
	if passes < 10 {
		return true
	}
	return pass%(passes/10) == 0 || pass == passes
}
