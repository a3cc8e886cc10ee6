// Package options holds command line configuration.
package options

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/stewi1014/glmandel/export"
	"github.com/stewi1014/glmandel/kernel"
)

// BackendEnv overrides the default backend when -backend is not given.
const BackendEnv = "GLMANDEL_BACKEND"

var (
	ErrUnknownBackend = errors.New("unknown backend")
	ErrInvalidOption  = errors.New("invalid option")
)

type Backend string

const (
	CPU Backend = "cpu"
	GPU Backend = "gpu"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case CPU, GPU:
		return b, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownBackend, s)
}

type Options struct {
	Width    int
	Height   int
	Passes   int
	Strategy kernel.Strategy
	Aux      kernel.AuxPolicy
	Backend  Backend
	Workers  int

	Output     string
	Record     string // mp4 of every pass, empty to disable
	FPS        int
	FFmpegPath string

	View  bool // GTK viewer
	Term  bool // terminal preview
	Debug bool // GL debug context
}

// Parse reads args into Options. The backend falls back to $GLMANDEL_BACKEND,
// then cpu.
func Parse(fs *flag.FlagSet, args []string) (*Options, error) {
	opts := &Options{}

	var strategy, aux, backend string
	fs.IntVar(&opts.Width, "width", 1000, "Grid width in cells")
	fs.IntVar(&opts.Height, "height", 1000, "Grid height in cells")
	fs.IntVar(&opts.Passes, "passes", 100, "Number of iteration passes")
	fs.StringVar(&strategy, "strategy", kernel.StrategyCount.String(), "Colouring strategy (count or angle)")
	fs.StringVar(&aux, "aux", kernel.AuxPreserve.String(), "Count channel after escape (preserve or reset)")
	fs.StringVar(&backend, "backend", "", "Render backend (cpu or gpu), from "+BackendEnv+" if not set")
	fs.IntVar(&opts.Workers, "workers", 0, "CPU worker goroutines, 0 for one per CPU")
	fs.StringVar(&opts.Output, "out", "mandelbrot.png", "Output image (.png, .tif, .tiff or .bmp)")
	fs.StringVar(&opts.Record, "record", "", "Record every pass to this video file")
	fs.IntVar(&opts.FPS, "fps", 30, "Frames per second for recording")
	fs.StringVar(&opts.FFmpegPath, "ffmpeg", "", "Path to ffmpeg executable")
	fs.BoolVar(&opts.View, "view", false, "Show progress in a window")
	fs.BoolVar(&opts.Term, "term", false, "Show progress in the terminal")
	fs.BoolVar(&opts.Debug, "debug", false, "Enable GL debug output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if opts.Strategy, err = kernel.ParseStrategy(strategy); err != nil {
		return nil, err
	}
	if opts.Aux, err = kernel.ParseAuxPolicy(aux); err != nil {
		return nil, err
	}

	if backend == "" {
		backend = os.Getenv(BackendEnv)
	}
	if backend == "" {
		backend = string(CPU)
	}
	if opts.Backend, err = ParseBackend(backend); err != nil {
		return nil, err
	}

	return opts, opts.Validate()
}

func (o *Options) Validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: %w", ErrInvalidOption, kernel.ErrInvalidDimensions)
	case o.Passes < 0:
		return fmt.Errorf("%w: negative pass count %d", ErrInvalidOption, o.Passes)
	case o.Workers < 0:
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidOption, o.Workers)
	case o.Record != "" && o.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive", ErrInvalidOption)
	case o.View && o.Backend == GPU:
		return fmt.Errorf("%w: -view cannot be used with the gpu backend", ErrInvalidOption)
	case o.View && o.Term:
		return fmt.Errorf("%w: -view and -term are exclusive", ErrInvalidOption)
	}

	if _, err := ParseBackend(string(o.Backend)); err != nil {
		return err
	}
	if _, err := export.FormatFromPath(o.Output); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return nil
}
