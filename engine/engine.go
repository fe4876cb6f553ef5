// Package engine defines the contract between the line console and the
// interpreter that parses, compiles and runs the assembled source.
package engine

// InputKind tells the interpreter how the source unit was assembled.
type InputKind int

const (
	// SingleInput is one top-level statement typed on the primary prompt.
	SingleInput InputKind = iota
	// BlockInput is a multi-line compound statement collected on the
	// continuation prompt.
	BlockInput
)

func (k InputKind) String() string {
	switch k {
	case SingleInput:
		return "single"
	case BlockInput:
		return "block"
	default:
		return "unknown"
	}
}

// Flags modify how a source unit is executed.
type Flags uint8

const (
	// AllowDebugInfo lets the interpreter print debugging information
	// (timing) after the statement ran.
	AllowDebugInfo Flags = 1 << iota
	// IsRepl marks input typed at the interactive prompt.
	IsRepl
)

// Has reports whether all bits of x are set in f.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

// Outcome is the result of a single execution.
type Outcome int

const (
	// Completed means the statement ran without error.
	Completed Outcome = iota
	// ErrorReported means a syntax or runtime failure was printed to the
	// output by the interpreter itself.
	ErrorReported
	// ForcedExit means the statement asked to terminate the session.
	ForcedExit
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case ErrorReported:
		return "error"
	case ForcedExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Engine is an embedded interpreter.
//
// Execute blocks until the statement is done. Interrupt may be called from
// another goroutine while Execute is running and must make it return soon.
type Engine interface {
	Execute(src string, kind InputKind, flags Flags) Outcome
	NeedsContinuation(src string) bool
	Interrupt()
	Close() error
}

// Completer is implemented by engines that can suggest names for tab
// completion.
type Completer interface {
	Complete(prefix string) []string
}
