package export

import (
	"errors"
	"fmt"
	"image"
	"io"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var ErrFrameSize = errors.New("frame size does not match recording")

// Recorder pipes raw RGBA frames into ffmpeg, one frame per pass.
type Recorder struct {
	width  int
	height int
	frames int
	pipe   *io.PipeWriter
	errc   chan error
}

type RecorderOptions struct {
	Path       string
	Width      int
	Height     int
	FPS        int
	FFmpegPath string
}

func recordStream(opts RecorderOptions, input io.Reader) *ffmpeg.Stream {
	inputArgs := ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"framerate": opts.FPS,
	}
	outputArgs := ffmpeg.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
	}

	stream := ffmpeg.Input("pipe:", inputArgs).
		Output(opts.Path, outputArgs).
		OverWriteOutput().
		WithInput(input).
		ErrorToStdOut()

	if opts.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(opts.FFmpegPath)
	}
	return stream
}

// NewRecorder starts ffmpeg writing to opts.Path.
func NewRecorder(opts RecorderOptions) *Recorder {
	pipeReader, pipeWriter := io.Pipe()

	r := &Recorder{
		width:  opts.Width,
		height: opts.Height,
		pipe:   pipeWriter,
		errc:   make(chan error, 1),
	}

	cmd := recordStream(opts, pipeReader)
	go func() {
		err := cmd.Run()
		pipeReader.CloseWithError(err)
		r.errc <- err
	}()

	return r
}

// WriteFrame appends one frame.
func (r *Recorder) WriteFrame(img *image.NRGBA) error {
	if err := writeFrame(r.pipe, img, r.width, r.height); err != nil {
		return err
	}
	r.frames++
	return nil
}

// Frames is the number of frames written so far.
func (r *Recorder) Frames() int { return r.frames }

// Close flushes the stream and waits for ffmpeg to exit.
func (r *Recorder) Close() error {
	r.pipe.Close()
	if err := <-r.errc; err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// writeFrame writes img row by row as tightly packed RGBA.
func writeFrame(w io.Writer, img *image.NRGBA, width, height int) error {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), width, height)
	}

	for y := 0; y < height; y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		if _, err := w.Write(img.Pix[start : start+width*4]); err != nil {
			return err
		}
	}
	return nil
}
