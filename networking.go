package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"image"
	"net"
	"sync"

	"github.com/stewi1014/glmandel/export"
	"github.com/stewi1014/glmandel/options"
)

func NewPipeListener() (client net.Conn, listener net.Listener) {
	clientPipe, listenerPipe := net.Pipe()
	return clientPipe, &pipeListener{
		pipe: listenerPipe,
		done: make(chan struct{}),
	}
}

// pipeListener hands out its pipe once, then blocks until closed.
type pipeListener struct {
	mu     sync.Mutex
	pipe   net.Conn
	done   chan struct{}
	closed bool
}

func (p *pipeListener) Accept() (net.Conn, error) {
	p.mu.Lock()
	pipe := p.pipe
	p.pipe = nil
	p.mu.Unlock()

	if pipe != nil {
		return pipe, nil
	}
	<-p.done
	return nil, net.ErrClosed
}

func (p *pipeListener) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	if p.pipe != nil {
		return p.pipe.Close()
	}
	return nil
}

func (p *pipeListener) Addr() net.Addr {
	return pipeAddr{}
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

// Frame is one rendered pass sent to the viewer. The final frame has Done
// set, and Err when rendering failed.
type Frame struct {
	Pass    int
	Passes  int
	PNG     []byte
	Escaped int
	Done    bool
	Err     string
}

func (f *Frame) Image() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(f.PNG))
	return img, err
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, img, export.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// serveFrames renders opts on the first connection from listener, sending
// a Frame after every pass and a final Done frame.
func serveFrames(ctx context.Context, listener net.Listener, opts *options.Options) error {
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	enc := gob.NewEncoder(conn)
	send := func(pass int, img *image.NRGBA) error {
		data, err := encodePNG(img)
		if err != nil {
			return err
		}
		return enc.Encode(&Frame{Pass: pass, Passes: opts.Passes, PNG: data})
	}

	res, err := run(ctx, opts, send)
	final := &Frame{Passes: opts.Passes, Done: true}
	if err != nil {
		final.Err = err.Error()
	} else {
		final.Pass = res.Passes
		final.Escaped = res.Escaped
		if final.PNG, err = encodePNG(res.Image); err != nil {
			return err
		}
	}

	if encErr := enc.Encode(final); encErr != nil && err == nil {
		return encErr
	}
	return err
}

// receiveFrames decodes frames from conn until the Done frame, calling
// onFrame for each.
func receiveFrames(conn net.Conn, onFrame func(*Frame)) error {
	dec := gob.NewDecoder(conn)
	for {
		frame := new(Frame)
		if err := dec.Decode(frame); err != nil {
			return err
		}
		onFrame(frame)
		if frame.Done {
			return nil
		}
	}
}
