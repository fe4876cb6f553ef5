// Package repl implements the interactive line console: it assembles the
// characters delivered by the host into source units and hands them to an
// execute service.
package repl

import (
	"io"

	"vmrepl/engine"
	"vmrepl/readline"
)

// Default prompts.
const (
	DefaultPS1 = ">>> "
	DefaultPS2 = "... "
)

// Mode tells which prompt the console is collecting input for.
type Mode int

const (
	// ModeMain collects a new top level entry.
	ModeMain Mode = iota
	// ModeContinuation collects further lines of a compound statement.
	ModeContinuation
)

func (m Mode) String() string {
	if m == ModeContinuation {
		return "continuation"
	}
	return "main"
}

// Executor runs source units.
type Executor interface {
	Execute(src string, kind engine.InputKind, flags engine.Flags) engine.Outcome
	NeedsContinuation(src string) bool
}

// Host is told when the user ends the session.
type Host interface {
	RequestSessionExit()
}

// Editor edits the last line of the console buffer.
type Editor interface {
	Init(line *[]byte, prompt string)
	ProcessChar(c byte) readline.Result
	Redisplay()
}

// Options configures a REPL. Empty prompts select the defaults.
type Options struct {
	Banner string
	PS1    string
	PS2    string
}

// REPL is one console session. It is not safe for concurrent use; the host
// delivers characters from a single goroutine.
type REPL struct {
	out    io.Writer
	exec   Executor
	host   Host
	editor Editor
	opts   Options

	line   []byte
	mode   Mode
	exited bool
}

// New creates a console writing to out. Nothing is written until Init.
func New(out io.Writer, exec Executor, host Host, editor Editor, opts Options) *REPL {
	if opts.PS1 == "" {
		opts.PS1 = DefaultPS1
	}
	if opts.PS2 == "" {
		opts.PS2 = DefaultPS2
	}
	return &REPL{
		out:    out,
		exec:   exec,
		host:   host,
		editor: editor,
		opts:   opts,
	}
}

// Init prints the banner and the primary prompt.
func (r *REPL) Init() {
	if r.line == nil {
		r.line = make([]byte, 0, 32)
	}
	r.exited = false
	r.reset()
}

// Mode returns the current mode.
func (r *REPL) Mode() Mode {
	return r.mode
}

// Buffer returns a copy of the text collected so far.
func (r *REPL) Buffer() string {
	return string(r.line)
}

// ReceiveChar feeds one character typed by the user.
func (r *REPL) ReceiveChar(c byte) {
	if r.exited {
		return
	}
	res := r.editor.ProcessChar(c)
	if r.mode == ModeMain {
		r.receiveMain(res)
	} else {
		r.receiveContinuation(res)
	}
}

func (r *REPL) receiveMain(res readline.Result) {
	switch res.Kind {
	case readline.Incomplete:
		return

	case readline.Control:
		switch res.Code {
		case readline.CtrlB:
			io.WriteString(r.out, "\r\n")
			r.reset()
		case readline.CtrlC:
			// keep the pending text, start over on a fresh prompt line
			io.WriteString(r.out, "\r\n")
			r.editor.Redisplay()
		case readline.CtrlD:
			io.WriteString(r.out, "\r\n")
			r.line = r.line[:0]
			r.exit()
		}
		// CtrlA (raw REPL) and CtrlE (paste mode) are not supported
		return
	}

	if len(r.line) == 0 {
		r.restart()
		return
	}
	if r.exec.NeedsContinuation(string(r.line)) {
		r.line = append(r.line, '\n')
		r.mode = ModeContinuation
		r.editor.Init(&r.line, r.opts.PS2)
		return
	}
	r.dispatch(engine.SingleInput)
}

func (r *REPL) receiveContinuation(res readline.Result) {
	switch res.Kind {
	case readline.Incomplete:
		return

	case readline.Control:
		switch res.Code {
		case readline.CtrlB:
			io.WriteString(r.out, "\r\n")
			r.reset()
		case readline.CtrlC:
			io.WriteString(r.out, "\r\n")
			r.restart()
		case readline.CtrlD:
			io.WriteString(r.out, "\r\n")
			r.dispatch(engine.BlockInput)
		}
		return
	}

	if r.exec.NeedsContinuation(string(r.line)) {
		r.line = append(r.line, '\n')
		r.editor.Init(&r.line, r.opts.PS2)
		return
	}
	r.dispatch(engine.BlockInput)
}

// dispatch executes the buffer and prepares the next entry.
func (r *REPL) dispatch(kind engine.InputKind) {
	outcome := r.exec.Execute(string(r.line), kind, engine.AllowDebugInfo|engine.IsRepl)
	if outcome == engine.ForcedExit {
		r.exit()
		return
	}
	r.restart()
}

// restart clears the buffer and shows the primary prompt.
func (r *REPL) restart() {
	r.mode = ModeMain
	r.line = r.line[:0]
	r.editor.Init(&r.line, r.opts.PS1)
}

// reset prints the banner and restarts.
func (r *REPL) reset() {
	if r.opts.Banner != "" {
		io.WriteString(r.out, r.opts.Banner)
		io.WriteString(r.out, "\r\n")
	}
	r.restart()
}

func (r *REPL) exit() {
	r.exited = true
	r.host.RequestSessionExit()
}
