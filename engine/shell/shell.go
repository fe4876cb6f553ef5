// Package shell runs console input through the mvdan.cc/sh POSIX shell
// interpreter.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"vmrepl/engine"
	"vmrepl/logger"
)

const sourceName = "<stdin>"

// Shell is an engine.Engine backed by an interp.Runner. Variables,
// functions and the working directory persist between statements.
type Shell struct {
	runner *interp.Runner
	out    io.Writer
	log    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc

	// status of the last statement, as seen by $?
	status uint8
}

// New creates a shell writing stdout and stderr of every command to out.
// Commands get no stdin: the keyboard belongs to the console.
func New(out io.Writer, log *slog.Logger) (*Shell, error) {
	r, err := interp.New(interp.StdIO(nil, out, out))
	if err != nil {
		return nil, fmt.Errorf("create shell runner: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Shell{
		runner: r,
		out:    out,
		log:    log,
	}, nil
}

// NeedsContinuation reports whether src stops in the middle of a
// statement: an open compound command, an unclosed quote, a trailing
// backslash or pipe.
func (s *Shell) NeedsContinuation(src string) bool {
	p := syntax.NewParser()
	incomplete := false
	// A parse error here is either the reader running dry while the parser
	// still wanted input, or a plain syntax error that Execute reports.
	_ = p.Interactive(strings.NewReader(src+"\n"), func(stmts []*syntax.Stmt) bool {
		incomplete = p.Incomplete()
		return true
	})
	return incomplete
}

// Execute parses and runs src. Syntax and runtime errors are printed to the
// output; the exit builtin is reported as engine.ForcedExit.
func (s *Shell) Execute(src string, kind engine.InputKind, flags engine.Flags) engine.Outcome {
	defer func() {
		s.log.Debug("statement finished", "kind", kind.String(), "status", s.status)
	}()

	file, err := syntax.NewParser().Parse(strings.NewReader(src), sourceName)
	if err != nil {
		fmt.Fprintf(s.out, "%v\r\n", err)
		s.status = 2
		return engine.ErrorReported
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	err = s.runner.Run(ctx, file)

	// a cancelled context also marks the runner as exited
	var status interp.ExitStatus
	switch {
	case ctx.Err() != nil:
		fmt.Fprint(s.out, "KeyboardInterrupt\r\n")
		s.status = 130
		return engine.ErrorReported
	case s.runner.Exited():
		s.log.Info("exit requested", "kind", kind.String())
		return engine.ForcedExit
	case err == nil:
		s.status = 0
		return engine.Completed
	case errors.As(err, &status):
		s.status = uint8(status)
		return engine.ErrorReported
	default:
		fmt.Fprintf(s.out, "%v\r\n", err)
		s.status = 1
		return engine.ErrorReported
	}
}

// Interrupt cancels the statement currently running, if any.
func (s *Shell) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Close releases the runner state.
func (s *Shell) Close() error {
	s.Interrupt()
	s.runner.Reset()
	return nil
}
