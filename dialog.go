package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"runtime/debug"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
)

func CatchPanicToContext(ctxCancel context.CancelCauseFunc) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		err = fmt.Errorf("%w\n%v", err, string(debug.Stack()))
		if ctxCancel != nil {
			ctxCancel(err)
		}
	}
}

// WrapErrorDialog returns a signal handler that shows failures from
// failable in an error dialog.
func WrapErrorDialog(parent *gtk.ApplicationWindow, failable func() error) func() {
	return func() {
		err := failable()
		if err != nil {
			log.Println(err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, err)
			})
		}
	}
}

// AttachErrorDialog shows the cause of ctx ending in an error dialog unless
// it was cancelled.
func AttachErrorDialog(parent *gtk.ApplicationWindow, ctx context.Context, done func()) {
	go func() {
		<-ctx.Done()
		err := context.Cause(ctx)
		if errors.Is(err, context.Canceled) {
			glib.IdleAdd(done)
			return
		}

		log.Println(err)
		glib.IdleAdd(func() {
			NewErrorDialog(parent, err)
			done()
		})
	}()
}

func NewErrorDialog(
	parent *gtk.ApplicationWindow,
	err error,
) {
	_, file, line, ok := runtime.Caller(1)

	fileLocation := "unknown file"
	if ok {
		fileLocation = fmt.Sprintf("%s:%v", file, line)
	}

	dialog := gtk.MessageDialogNew(
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		gtk.MESSAGE_ERROR,
		gtk.BUTTONS_CLOSE,
		"Error in %s: %s",
		fileLocation,
		err.Error(),
	)

	dialog.Connect("response", dialog.Destroy)

	messageArea, err := dialog.GetMessageArea()
	if err != nil {
		log.Println(err)

	} else {
		messageArea.GetChildren().Foreach(func(item interface{}) {
			if widget, ok := item.(*gtk.Widget); ok {
				l, err := gtk.WidgetToLabel(widget)
				if err != nil {
					return
				}

				l.SetSelectable(true)
			}
		})
	}

	dialog.SetKeepAbove(true)
	dialog.Run()
}
