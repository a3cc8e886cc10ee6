package main

import (
	"context"
	"errors"
	"image"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stewi1014/glmandel/kernel"
	"github.com/stewi1014/glmandel/options"
)

func testOptions(t *testing.T, passes int) *options.Options {
	return &options.Options{
		Width:    16,
		Height:   12,
		Passes:   passes,
		Strategy: kernel.StrategyCount,
		Aux:      kernel.AuxPreserve,
		Backend:  options.CPU,
		Output:   filepath.Join(t.TempDir(), "out.png"),
		FPS:      30,
	}
}

func TestRun(t *testing.T) {
	opts := testOptions(t, 12)

	var passes []int
	res, err := run(context.Background(), opts, func(pass int, img *image.NRGBA) error {
		passes = append(passes, pass)
		if img.Bounds() != image.Rect(0, 0, opts.Width, opts.Height) {
			t.Errorf("pass %d image bounds = %v", pass, img.Bounds())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(passes) != opts.Passes {
		t.Fatalf("sink saw %d passes, want %d", len(passes), opts.Passes)
	}
	for i, pass := range passes {
		if pass != i+1 {
			t.Errorf("sink call %d got pass %d", i, pass)
		}
	}

	if res.Passes != opts.Passes {
		t.Errorf("result passes = %d", res.Passes)
	}
	if res.Escaped <= 0 || res.Escaped >= opts.Width*opts.Height {
		t.Errorf("escaped = %d of %d", res.Escaped, opts.Width*opts.Height)
	}

	file, err := os.Open(opts.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != res.Image.Bounds() {
		t.Errorf("saved image bounds = %v", img.Bounds())
	}
}

func TestRunSinkError(t *testing.T) {
	opts := testOptions(t, 5)
	errStop := errors.New("stop")

	calls := 0
	_, err := run(context.Background(), opts, func(pass int, img *image.NRGBA) error {
		calls++
		if pass == 2 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Errorf("run error = %v", err)
	}
	if calls != 2 {
		t.Errorf("sink called %d times", calls)
	}
	if _, err := os.Stat(opts.Output); !os.IsNotExist(err) {
		t.Error("output written after failure")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := run(ctx, testOptions(t, 5)); !errors.Is(err, context.Canceled) {
		t.Errorf("run error = %v", err)
	}
}

func TestLogPass(t *testing.T) {
	logged := 0
	for pass := 1; pass <= 100; pass++ {
		if logPass(pass, 100) {
			logged++
		}
	}
	if logged != 10 {
		t.Errorf("logged %d of 100 passes", logged)
	}
	if !logPass(3, 5) {
		t.Error("short runs should log every pass")
	}
	if !logPass(105, 105) {
		t.Error("last pass not logged")
	}
}

func TestPreviewSize(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{100, 50, 100, 50},
		{1600, 800, 800, 400},
		{1000, 4000, 200, 800},
		{4000, 1, 800, 1},
	}
	for _, test := range tests {
		w, h := previewSize(test.w, test.h)
		if w != test.wantW || h != test.wantH {
			t.Errorf("previewSize(%d, %d) = %d, %d", test.w, test.h, w, h)
		}
	}
}

func TestPipeListener(t *testing.T) {
	client, listener := NewPipeListener()
	defer client.Close()

	conn, err := listener.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if listener.Addr().Network() != "pipe" {
		t.Errorf("Addr().Network() = %q", listener.Addr().Network())
	}

	accepted := make(chan error)
	go func() {
		_, err := listener.Accept()
		accepted <- err
	}()

	if err := listener.Close(); err != nil {
		t.Fatal(err)
	}
	if err := <-accepted; !errors.Is(err, net.ErrClosed) {
		t.Errorf("second Accept error = %v", err)
	}
	if err := listener.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}

func TestServeFrames(t *testing.T) {
	opts := testOptions(t, 4)
	client, listener := NewPipeListener()
	defer listener.Close()

	served := make(chan error, 1)
	go func() {
		served <- serveFrames(context.Background(), listener, opts)
	}()

	var frames []*Frame
	if err := receiveFrames(client, func(f *Frame) {
		frames = append(frames, f)
	}); err != nil {
		t.Fatal(err)
	}
	if err := <-served; err != nil {
		t.Fatal(err)
	}

	if len(frames) != opts.Passes+1 {
		t.Fatalf("received %d frames", len(frames))
	}
	for i, f := range frames[:opts.Passes] {
		if f.Done || f.Pass != i+1 || f.Passes != opts.Passes {
			t.Errorf("frame %d = pass %d/%d done %v", i, f.Pass, f.Passes, f.Done)
		}
	}

	final := frames[opts.Passes]
	if !final.Done || final.Err != "" || final.Pass != opts.Passes {
		t.Errorf("final frame = %+v", final)
	}
	img, err := final.Image()
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != opts.Width || img.Bounds().Dy() != opts.Height {
		t.Errorf("final image bounds = %v", img.Bounds())
	}
}

func TestServeFramesError(t *testing.T) {
	opts := testOptions(t, 2)
	opts.Output = filepath.Join(t.TempDir(), "missing", "out.png")

	client, listener := NewPipeListener()
	defer listener.Close()

	served := make(chan error, 1)
	go func() {
		served <- serveFrames(context.Background(), listener, opts)
	}()

	var final *Frame
	if err := receiveFrames(client, func(f *Frame) { final = f }); err != nil {
		t.Fatal(err)
	}
	if err := <-served; err == nil {
		t.Error("serveFrames succeeded saving into a missing directory")
	}
	if final == nil || !final.Done || final.Err == "" {
		t.Errorf("final frame = %+v", final)
	}
}
