package console

import (
	"bytes"
	"io"
	"sync"
)

// Simple console: output collects in memory and goes to the terminal in one
// write per flush. Status messages go to a separate writer.
type Simple struct {
	mu     sync.Mutex
	out    io.Writer
	status io.Writer
	buf    bytes.Buffer
}

// NewSimple returns a sink writing to out. status may be nil to drop status
// messages.
func NewSimple(out, status io.Writer) *Simple {
	if status == nil {
		status = io.Discard
	}
	return &Simple{out: out, status: status}
}

// Write buffers p.
func (c *Simple) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Flush writes everything buffered so far.
func (c *Simple) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buf.Len() == 0 {
		return nil
	}
	_, err := c.buf.WriteTo(c.out)
	return err
}

// WriteConsole writes msg to the status writer, one line per line of msg.
func (c *Simple) WriteConsole(msg string) error {
	for _, line := range statusLines(msg) {
		if _, err := io.WriteString(c.status, line+"\r\n"); err != nil {
			return err
		}
	}
	return nil
}
