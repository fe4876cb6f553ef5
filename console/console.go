// Package console holds the output sinks of the host: everything the line
// console and the interpreter print ends up in one of them.
package console

import (
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"
)

// Output is an output sink. Writes are buffered until the host flushes on
// its redraw tick.
type Output interface {
	Write(p []byte) (int, error)
	Flush() error
}

// StatusWriter displays host status messages next to the terminal.
type StatusWriter interface {
	WriteConsole(msg string) error
}

// Console is the gocui status panel. Status lines are handed to a goroutine
// because gocui views may only be touched through Gui.Update.
type Console struct {
	consoleOut chan string // status lines waiting for the gui
	done       chan struct{}
	g          *gocui.Gui
	v          *gocui.View
}

// New attaches a status console to the named view and starts its writer.
func New(g *gocui.Gui, view string) (*Console, error) {
	v, err := g.View(view)
	if err != nil {
		return nil, fmt.Errorf("status view %q: %w", view, err)
	}
	c := &Console{
		consoleOut: make(chan string, 64),
		done:       make(chan struct{}),
		g:          g,
		v:          v,
	}
	go c.run()
	return c, nil
}

func (c *Console) run() {
	for {
		select {
		case s := <-c.consoleOut:
			c.g.Update(func(g *gocui.Gui) error {
				fmt.Fprint(c.v, s)
				return nil
			})
		case <-c.done:
			return
		}
	}
}

// WriteConsole displays msg on the status panel, one line per line of msg.
// Empty lines are dropped.
func (c *Console) WriteConsole(msg string) error {
	for _, line := range statusLines(msg) {
		select {
		case c.consoleOut <- line + "\n":
		case <-c.done:
			return nil
		}
	}
	return nil
}

// Close stops the writer goroutine.
func (c *Console) Close() error {
	close(c.done)
	return nil
}

func statusLines(msg string) []string {
	var lines []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
