package teletype

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"vmrepl/interrupts"
	"vmrepl/logger"
)

// Simple teletype: reads the keyboard byte by byte from a stream. A
// terminal is switched to raw mode so that control characters reach the
// console instead of the line discipline.
type Simple struct {
	in  io.Reader
	rcv Receiver
	log *slog.Logger

	mu      sync.Mutex
	restore func() error
}

// NewSimple returns a teletype reading from in.
func NewSimple(in io.Reader, rcv Receiver, log *slog.Logger) *Simple {
	if log == nil {
		log = logger.Discard()
	}
	return &Simple{in: in, rcv: rcv, log: log}
}

// Run puts the terminal in raw mode, if in is one, and starts reading.
func (t *Simple) Run() error {
	if f, ok := t.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		restore, err := enterRawTerm(int(f.Fd()))
		if err != nil {
			return err
		}
		t.mu.Lock()
		t.restore = restore
		t.mu.Unlock()
		t.log.Debug("terminal in raw mode")
	}
	go t.stdin()
	return nil
}

// Close restores the terminal. It is safe to call more than once.
func (t *Simple) Close() error {
	t.mu.Lock()
	restore := t.restore
	t.restore = nil
	t.mu.Unlock()
	if restore == nil {
		return nil
	}
	return restore()
}

func (t *Simple) stdin() {
	var b [1]byte
	for {
		n, err := t.in.Read(b[:])
		if n == 1 {
			t.rcv.Key(b[0])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.log.Error("keyboard read failed", "error", err)
			}
			t.rcv.Post(interrupts.SysQuit)
			return
		}
	}
}
