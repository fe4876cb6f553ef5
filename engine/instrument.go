package engine

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"vmrepl/logger"
)

// Recorder receives one observation per executed source unit.
type Recorder interface {
	ObserveExecution(kind, outcome string, took time.Duration)
}

// Options configure an Instrumented engine.
type Options struct {
	// ShowTiming prints "took N ms" after statements run with
	// AllowDebugInfo.
	ShowTiming bool
	Logger     *slog.Logger
	Recorder   Recorder
}

// Instrumented wraps an Engine with logging, metrics and the optional
// timing line.
type Instrumented struct {
	Engine
	out  io.Writer
	opts Options
	now  func() time.Time
}

// Instrument returns e wrapped with the given options. Debug output is
// written to out.
func Instrument(e Engine, out io.Writer, opts Options) *Instrumented {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Instrumented{
		Engine: e,
		out:    out,
		opts:   opts,
		now:    time.Now,
	}
}

// Execute runs src on the wrapped engine.
func (i *Instrumented) Execute(src string, kind InputKind, flags Flags) Outcome {
	start := i.now()
	outcome := i.Engine.Execute(src, kind, flags)
	took := i.now().Sub(start)

	i.opts.Logger.Debug("executed",
		"kind", kind.String(),
		"outcome", outcome.String(),
		"bytes", len(src),
		"took", took)

	if i.opts.Recorder != nil {
		i.opts.Recorder.ObserveExecution(kind.String(), outcome.String(), took)
	}

	if outcome != ForcedExit && flags.Has(AllowDebugInfo) && i.opts.ShowTiming {
		fmt.Fprintf(i.out, "took %d ms\r\n", took.Milliseconds())
	}
	return outcome
}

// Complete forwards to the wrapped engine when it supports completion.
func (i *Instrumented) Complete(prefix string) []string {
	if c, ok := i.Engine.(Completer); ok {
		return c.Complete(prefix)
	}
	return nil
}
