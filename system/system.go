// Package system is the host runtime: it owns the event loop that delivers
// system events, keystrokes and redraw ticks to the console session.
package system

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vmrepl/console"
	"vmrepl/engine"
	"vmrepl/interrupts"
	"vmrepl/logger"
	"vmrepl/readline"
	"vmrepl/repl"
)

// DefaultFPS is the redraw rate used when none is configured.
const DefaultFPS = 15

// eventQueueSize bounds the keystrokes waiting for the loop.
const eventQueueSize = 1024

// EngineFactory creates the interpreter of a new session. Everything the
// interpreter prints goes to out.
type EngineFactory func(out io.Writer) (engine.Engine, error)

// Metrics is the part of the metrics registry the host feeds.
type Metrics interface {
	engine.Recorder
	CharReceived()
	SessionStarted()
}

// Options configure a System.
type Options struct {
	FPS        int
	Console    repl.Options
	History    *readline.History // may be nil
	ShowTiming bool
	Metrics    Metrics // may be nil
}

// System definition.
type System struct {
	out       console.Output
	status    console.StatusWriter
	newEngine EngineFactory
	opts      Options
	log       *slog.Logger

	events  chan interrupts.Interrupt
	stopped chan struct{}

	// busy is set while a statement executes; Key uses it to route Ctrl-C
	// to the engine.
	busy atomic.Bool
	mu   sync.Mutex
	eng  engine.Engine

	// owned by the loop goroutine
	console       *repl.REPL
	ticker        *time.Ticker
	exitRequested bool
}

// New creates a host writing to out. status may be nil.
func New(out console.Output, status console.StatusWriter, newEngine EngineFactory, opts Options, log *slog.Logger) *System {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if status == nil {
		status = nopStatus{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &System{
		out:       out,
		status:    status,
		newEngine: newEngine,
		opts:      opts,
		log:       log,
		events:    make(chan interrupts.Interrupt, eventQueueSize),
		stopped:   make(chan struct{}),
	}
}

// Key is the keyboard callback. It may be called from any goroutine.
func (sys *System) Key(c byte) {
	if c == readline.CtrlC && sys.busy.Load() {
		sys.interruptEngine()
		return
	}
	sys.send(interrupts.Key(c))
}

// Stop interrupts a running statement and asks the loop to quit.
func (sys *System) Stop() {
	if sys.busy.Load() {
		sys.interruptEngine()
	}
	sys.Post(interrupts.SysQuit)
}

func (sys *System) interruptEngine() {
	sys.log.Debug("interrupting running statement")
	sys.mu.Lock()
	eng := sys.eng
	sys.mu.Unlock()
	if eng != nil {
		eng.Interrupt()
	}
}

// Post queues a host event such as interrupts.SysActive. It may be called
// from any goroutine.
func (sys *System) Post(vector uint16) {
	sys.send(interrupts.Interrupt{Vector: vector})
}

func (sys *System) send(ev interrupts.Interrupt) {
	select {
	case sys.events <- ev:
	case <-sys.stopped:
	}
}

// RequestSessionExit ends the session after the current character.
func (sys *System) RequestSessionExit() {
	sys.log.Info("session exit requested")
	sys.exitRequested = true
}

// Run processes events until the session ends, SysQuit is posted or ctx is
// cancelled. The console is torn down before Run returns.
func (sys *System) Run(ctx context.Context) error {
	defer close(sys.stopped)
	defer sys.teardown()

	// cancelling ctx also interrupts a running statement
	go func() {
		select {
		case <-ctx.Done():
			sys.interruptEngine()
		case <-sys.stopped:
		}
	}()

	var tick <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			sys.log.Info("host stopped", "reason", ctx.Err())
			return nil

		case <-tick:
			sys.flush()

		case ev := <-sys.events:
			if ev.Vector != interrupts.KeyIn {
				sys.log.Debug("event", "vector", interrupts.Name(ev.Vector))
			}
			switch ev.Vector {
			case interrupts.SysCreate, interrupts.SysActive:
				if err := sys.activate(); err != nil {
					return err
				}
				tick = sys.ticker.C
			case interrupts.SysPaint, interrupts.Tick:
				sys.flush()
			case interrupts.SysInactive:
				sys.deactivate()
				tick = nil
			case interrupts.SysQuit:
				return nil
			case interrupts.KeyIn:
				sys.receive(ev.Data)
				if sys.exitRequested {
					return nil
				}
			default:
				sys.log.Warn("unknown event", "vector", ev.Vector)
			}
		}
	}
}

func (sys *System) receive(c byte) {
	if sys.console == nil {
		sys.log.Debug("key dropped, no active session", "char", c)
		return
	}
	sys.opts.Metrics.CharReceived()
	sys.console.ReceiveChar(c)
}

// activate starts a session unless one is running.
func (sys *System) activate() error {
	if sys.console != nil {
		return nil
	}

	eng, err := sys.newEngine(sys.out)
	if err != nil {
		return fmt.Errorf("start interpreter: %w", err)
	}
	inst := engine.Instrument(eng, sys.out, engine.Options{
		ShowTiming: sys.opts.ShowTiming,
		Logger:     sys.log.With("component", "engine"),
		Recorder:   sys.opts.Metrics,
	})
	sys.mu.Lock()
	sys.eng = inst
	sys.mu.Unlock()

	editor := readline.New(sys.out, sys.opts.History)
	editor.SetCompleter(inst)

	sys.exitRequested = false
	sys.console = repl.New(sys.out, guarded{sys: sys, eng: inst}, sys, editor, sys.opts.Console)
	sys.console.Init()
	sys.opts.Metrics.SessionStarted()

	sys.ticker = time.NewTicker(time.Second / time.Duration(sys.opts.FPS))
	sys.log.Info("session started", "fps", sys.opts.FPS)
	sys.status.WriteConsole("session started")
	sys.flush()
	return nil
}

// deactivate ends the running session, if any.
func (sys *System) deactivate() {
	if sys.console == nil {
		return
	}
	sys.ticker.Stop()
	sys.flush()

	sys.mu.Lock()
	eng := sys.eng
	sys.eng = nil
	sys.mu.Unlock()
	if err := eng.Close(); err != nil {
		sys.log.Error("close interpreter", "error", err)
	}

	if sys.opts.History != nil {
		if err := sys.opts.History.Save(); err != nil {
			sys.log.Error("save history", "error", err)
		}
	}

	sys.console = nil
	sys.log.Info("session ended")
	sys.status.WriteConsole("session ended")
}

func (sys *System) teardown() {
	sys.deactivate()
	sys.flush()
}

func (sys *System) flush() {
	if err := sys.out.Flush(); err != nil {
		sys.log.Error("flush output", "error", err)
	}
}

// guarded marks the host busy while a statement runs.
type guarded struct {
	sys *System
	eng engine.Engine
}

func (g guarded) Execute(src string, kind engine.InputKind, flags engine.Flags) engine.Outcome {
	g.sys.busy.Store(true)
	defer g.sys.busy.Store(false)
	return g.eng.Execute(src, kind, flags)
}

func (g guarded) NeedsContinuation(src string) bool {
	return g.eng.NeedsContinuation(src)
}

type nopMetrics struct{}

func (nopMetrics) ObserveExecution(kind, outcome string, took time.Duration) {}
func (nopMetrics) CharReceived()                                             {}
func (nopMetrics) SessionStarted()                                           {}

type nopStatus struct{}

func (nopStatus) WriteConsole(msg string) error { return nil }
