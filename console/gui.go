package console

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jroimartin/gocui"
)

// Gui renders the terminal into a gocui view. Output is interpreted by a
// VT100 screen model; Flush copies the visible part of the screen into the
// view.
type Gui struct {
	g      *gocui.Gui
	v      *gocui.View
	screen *VT100

	mu    sync.Mutex
	dirty bool
}

// NewGui attaches a terminal sink to the named view.
func NewGui(g *gocui.Gui, view string, scrollback int) (*Gui, error) {
	v, err := g.View(view)
	if err != nil {
		return nil, fmt.Errorf("terminal view %q: %w", view, err)
	}
	return &Gui{
		g:      g,
		v:      v,
		screen: NewVT100(scrollback),
	}, nil
}

// Write feeds p to the screen model.
func (c *Gui) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
	return c.screen.Write(p)
}

// Flush schedules a redraw of the view if anything was written since the
// last flush.
func (c *Gui) Flush() error {
	c.mu.Lock()
	dirty := c.dirty
	c.dirty = false
	c.mu.Unlock()
	if !dirty {
		return nil
	}

	c.g.Update(func(g *gocui.Gui) error {
		w, h := c.v.Size()
		f := frameOf(c.screen, h)
		c.v.Clear()
		fmt.Fprint(c.v, f.text)
		if f.x >= w {
			f.x = w - 1
		}
		// errors ignored: the view may be smaller than the screen
		_ = c.v.SetOrigin(0, 0)
		_ = c.v.SetCursor(f.x, f.y)
		return nil
	})
	return nil
}

// frame is the part of a screen visible in a view of a given height.
type frame struct {
	text string
	x, y int // cursor within the frame
}

// frameOf returns the last height lines of the screen, scrolled so that the
// cursor line is visible.
func frameOf(screen *VT100, height int) frame {
	lines := screen.Lines()
	x, y := screen.Cursor()
	if height <= 0 {
		height = 1
	}
	top := 0
	if y >= height {
		top = y - height + 1
	}
	end := top + height
	if end > len(lines) {
		end = len(lines)
	}
	return frame{
		text: strings.Join(lines[top:end], "\n"),
		x:    x,
		y:    y - top,
	}
}
