package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/glmandel/options"
)

// GTK and GLFW both need the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	opts, err := options.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = mainErr(ctx, opts)
	stop()

	if errors.Is(err, context.Canceled) {
		log.Println("cancelled")
		os.Exit(130)
	}
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func mainErr(ctx context.Context, opts *options.Options) error {
	if opts.View {
		return gtkMain(ctx, opts)
	}

	res, err := run(ctx, opts)
	if err != nil {
		return err
	}
	log.Printf("wrote %s: %d of %d cells escaped after %d passes",
		opts.Output, res.Escaped, opts.Width*opts.Height, res.Passes)
	return nil
}

func gtkMain(ctx context.Context, opts *options.Options) error {
	gtk.Init(nil)
	app, err := gtk.ApplicationNew("com.github.stewi1014.glmandel", glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return fmt.Errorf("gtk.ApplicationNew failed: %w", err)
	}

	appContext, appQuit := context.WithCancelCause(ctx)
	defer appQuit(nil)

	app.Connect("activate", func() {
		client, listener := NewPipeListener()

		renderWindow := NewRenderWindow(app, client, appContext, appQuit)
		if renderWindow == nil {
			listener.Close()
			app.Quit()
			return
		}
		renderWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		renderWindow.SetTitle("GLMandel")
		AttachErrorDialog(renderWindow.ApplicationWindow, appContext, app.Quit)

		go func() {
			defer CatchPanicToContext(appQuit)
			defer listener.Close()

			err := serveFrames(appContext, listener, opts)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Println(err)
				return
			}
			if err == nil {
				log.Printf("wrote %s", opts.Output)
			}
		}()
	})

	app.Run(nil)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := context.Cause(appContext); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
