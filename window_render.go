package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/glmandel/export"
)

// maxPreviewSize bounds the longest side of the displayed image.
const maxPreviewSize = 800

func NewRenderWindow(
	app *gtk.Application,
	conn net.Conn,
	ctx context.Context,
	quit context.CancelCauseFunc,
) *RenderWindow {
	var err error
	w := &RenderWindow{
		ctx:  ctx,
		quit: quit,
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	w.image, err = gtk.ImageNew()
	if err != nil {
		quit(fmt.Errorf("gtk.ImageNew: %w", err))
		return nil
	}
	w.image.SetHExpand(true)
	w.image.SetVExpand(true)

	w.progressBar, _ = gtk.ProgressBarNew()
	w.progressBar.SetProperty("show-text", true)
	w.progressBar.SetHExpand(true)

	w.saveButton, _ = gtk.ButtonNewWithLabel("Save")
	w.saveButton.SetSensitive(false)
	w.saveButton.Connect("clicked", WrapErrorDialog(w.ApplicationWindow, w.save))

	cancelButton, _ := gtk.ButtonNewWithLabel("Cancel")
	cancelButton.Connect("clicked", func() {
		quit(context.Canceled)
	})

	grid, _ := gtk.GridNew()
	grid.SetRowSpacing(4)
	grid.SetColumnSpacing(4)
	grid.Attach(w.image, 0, 0, 3, 1)
	grid.Attach(w.progressBar, 0, 1, 1, 1)
	grid.Attach(w.saveButton, 1, 1, 1, 1)
	grid.Attach(cancelButton, 2, 1, 1, 1)

	w.Add(grid)
	w.ShowAll()

	go func() {
		defer CatchPanicToContext(quit)
		defer conn.Close()

		err := receiveFrames(conn, func(frame *Frame) {
			glib.IdleAdd(func() {
				w.showFrame(frame)
			})
		})
		if err != nil && ctx.Err() == nil {
			quit(err)
		}
	}()

	return w
}

type RenderWindow struct {
	*gtk.ApplicationWindow
	image       *gtk.Image
	progressBar *gtk.ProgressBar
	saveButton  *gtk.Button

	ctx  context.Context
	quit context.CancelCauseFunc

	last *Frame
}

func (w *RenderWindow) showFrame(frame *Frame) {
	if frame.Err != "" {
		NewErrorDialog(w.ApplicationWindow, errors.New(frame.Err))
		w.progressBar.SetText("Failed")
		return
	}

	if frame.Passes > 0 {
		w.progressBar.SetFraction(float64(frame.Pass) / float64(frame.Passes))
	} else {
		w.progressBar.SetFraction(1)
	}

	if frame.Done {
		w.progressBar.SetText(fmt.Sprintf("Done: %d passes, %d escaped", frame.Pass, frame.Escaped))
		w.saveButton.SetSensitive(true)
	} else {
		w.progressBar.SetText(fmt.Sprintf("Pass %d/%d", frame.Pass, frame.Passes))
	}

	if len(frame.PNG) == 0 {
		return
	}
	w.last = frame

	pixbuf, err := gdk.PixbufNewFromBytesOnly(frame.PNG)
	if err != nil {
		log.Println(err)
		return
	}

	width, height := previewSize(pixbuf.GetWidth(), pixbuf.GetHeight())
	if width != pixbuf.GetWidth() || height != pixbuf.GetHeight() {
		pixbuf, err = pixbuf.ScaleSimple(width, height, gdk.INTERP_NEAREST)
		if err != nil {
			log.Println(err)
			return
		}
	}
	w.image.SetFromPixbuf(pixbuf)
}

// previewSize fits width x height inside maxPreviewSize, keeping aspect.
func previewSize(width, height int) (int, int) {
	longest := max(width, height)
	if longest <= maxPreviewSize {
		return width, height
	}
	return max(1, width*maxPreviewSize/longest), max(1, height*maxPreviewSize/longest)
}

func (w *RenderWindow) save() error {
	if w.last == nil {
		return nil
	}

	dialog, err := gtk.FileChooserDialogNewWith2Buttons(
		"Save Image",
		w.ApplicationWindow,
		gtk.FILE_CHOOSER_ACTION_SAVE,
		"Cancel", gtk.RESPONSE_CANCEL,
		"Save", gtk.RESPONSE_ACCEPT,
	)
	if err != nil {
		return err
	}
	defer dialog.Destroy()

	dialog.SetDoOverwriteConfirmation(true)
	dialog.SetCurrentName("mandelbrot.png")
	if dialog.Run() != gtk.RESPONSE_ACCEPT {
		return nil
	}

	img, err := w.last.Image()
	if err != nil {
		return err
	}
	return export.Save(dialog.GetFilename(), img)
}
