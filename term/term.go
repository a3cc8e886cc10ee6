// Package term draws a live preview of a render in the terminal, two image
// rows per cell using upper half blocks.
package term

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

const halfBlock = '▀'

// Open initialises the controlling terminal.
func Open() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.Clear()
	return screen, nil
}

// Preview renders images to a screen. The bottom row is kept for a status
// line.
type Preview struct {
	screen tcell.Screen
	status string
	scaled *image.NRGBA
}

func NewPreview(screen tcell.Screen) *Preview {
	return &Preview{screen: screen}
}

func (p *Preview) SetStatus(status string) {
	p.status = status
}

// Draw scales img to the screen and shows it.
func (p *Preview) Draw(img image.Image) {
	width, height := p.screen.Size()
	rows := height - 1
	if width <= 0 || rows <= 0 {
		return
	}

	bounds := image.Rect(0, 0, width, rows*2)
	if p.scaled == nil || p.scaled.Bounds() != bounds {
		p.scaled = image.NewNRGBA(bounds)
	}
	xdraw.NearestNeighbor.Scale(p.scaled, bounds, img, img.Bounds(), draw.Src, nil)

	for y := 0; y < rows; y++ {
		for x := 0; x < width; x++ {
			style := tcell.StyleDefault.
				Foreground(cellColour(p.scaled.NRGBAAt(x, y*2))).
				Background(cellColour(p.scaled.NRGBAAt(x, y*2+1)))
			p.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}

	p.drawStatus(width, rows)
	p.screen.Show()
}

func (p *Preview) drawStatus(width, row int) {
	runes := []rune(p.status)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		p.screen.SetContent(x, row, r, nil, tcell.StyleDefault)
	}
}

func cellColour(c color.NRGBA) tcell.Color {
	col, _ := colorful.MakeColor(color.NRGBA{c.R, c.G, c.B, 255})
	r, g, b := col.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Watch polls screen events until ctx is done or the screen is finalised,
// calling cancel when q, Escape or Ctrl-C is pressed.
func Watch(ctx context.Context, screen tcell.Screen, cancel context.CancelFunc) {
	stop := context.AfterFunc(ctx, func() {
		screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if isQuit(ev) {
				cancel()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}
