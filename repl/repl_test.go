package repl

import (
	"bytes"
	"strings"
	"testing"

	"vmrepl/engine"
	"vmrepl/readline"
)

const banner = "vmrepl test banner"

type call struct {
	src   string
	kind  engine.InputKind
	flags engine.Flags
}

// fakeExec treats a line ending in ':' as a block header; a block ends
// with an empty line.
type fakeExec struct {
	calls   []call
	outcome engine.Outcome
}

func (f *fakeExec) Execute(src string, kind engine.InputKind, flags engine.Flags) engine.Outcome {
	f.calls = append(f.calls, call{src, kind, flags})
	return f.outcome
}

func (f *fakeExec) NeedsContinuation(src string) bool {
	if strings.HasSuffix(src, ":") {
		return true
	}
	return strings.Contains(src, "\n") && !strings.HasSuffix(src, "\n")
}

type fakeHost struct {
	exits int
}

func (h *fakeHost) RequestSessionExit() {
	h.exits++
}

func newREPL() (*REPL, *fakeExec, *fakeHost, *bytes.Buffer) {
	out := &bytes.Buffer{}
	exec := &fakeExec{}
	host := &fakeHost{}
	r := New(out, exec, host, readline.New(out, nil), Options{Banner: banner})
	r.Init()
	return r, exec, host, out
}

func send(r *REPL, s string) {
	for i := 0; i < len(s); i++ {
		r.ReceiveChar(s[i])
	}
}

func TestREPL_Init(t *testing.T) {
	_, _, _, out := newREPL()
	want := banner + "\r\n" + DefaultPS1
	if out.String() != want {
		t.Errorf("Init wrote %q, want %q", out.String(), want)
	}
}

func TestREPL_DefaultPrompts(t *testing.T) {
	r := New(&bytes.Buffer{}, &fakeExec{}, &fakeHost{}, readline.New(&bytes.Buffer{}, nil), Options{})
	if r.opts.PS1 != ">>> " || r.opts.PS2 != "... " {
		t.Errorf("prompts = %q %q", r.opts.PS1, r.opts.PS2)
	}
}

func TestREPL_SingleStatement(t *testing.T) {
	r, exec, _, _ := newREPL()

	send(r, "1+1\n")

	if len(exec.calls) != 1 {
		t.Fatalf("Execute called %d times, want 1", len(exec.calls))
	}
	got := exec.calls[0]
	if got.src != "1+1" || got.kind != engine.SingleInput || got.flags != engine.AllowDebugInfo|engine.IsRepl {
		t.Errorf("Execute(%q, %v, %v)", got.src, got.kind, got.flags)
	}
	if r.Mode() != ModeMain {
		t.Errorf("mode = %v, want main", r.Mode())
	}
	if r.Buffer() != "" {
		t.Errorf("buffer = %q, want empty", r.Buffer())
	}
}

func TestREPL_CompoundStatement(t *testing.T) {
	r, exec, _, out := newREPL()

	send(r, "def f():\n")
	if r.Mode() != ModeContinuation {
		t.Fatalf("mode = %v, want continuation", r.Mode())
	}
	if r.Buffer() != "def f():\n" {
		t.Errorf("buffer = %q", r.Buffer())
	}
	if len(exec.calls) != 0 {
		t.Fatalf("Execute called before the block was complete")
	}
	if !strings.HasSuffix(out.String(), DefaultPS2) {
		t.Errorf("output %q does not end with the continuation prompt", out.String())
	}

	send(r, "  return 1\n")
	if r.Mode() != ModeContinuation || len(exec.calls) != 0 {
		t.Fatalf("block ended early: mode %v, %d calls", r.Mode(), len(exec.calls))
	}

	send(r, "\n")
	if len(exec.calls) != 1 {
		t.Fatalf("Execute called %d times, want 1", len(exec.calls))
	}
	got := exec.calls[0]
	if got.src != "def f():\n  return 1\n" || got.kind != engine.BlockInput {
		t.Errorf("Execute(%q, %v)", got.src, got.kind)
	}
	if r.Mode() != ModeMain || r.Buffer() != "" {
		t.Errorf("after block: mode %v, buffer %q", r.Mode(), r.Buffer())
	}
	if !strings.HasSuffix(out.String(), DefaultPS1) {
		t.Errorf("output %q does not end with the primary prompt", out.String())
	}
}

func TestREPL_ModeSwitchesOncePerEntry(t *testing.T) {
	r, exec, _, _ := newREPL()

	switches := 0
	prev := r.Mode()
	for _, c := range []byte("if x:\n  a\n  b\n  c\n\n") {
		r.ReceiveChar(c)
		if prev == ModeMain && r.Mode() == ModeContinuation {
			switches++
		}
		prev = r.Mode()
	}
	if switches != 1 {
		t.Errorf("switched to continuation %d times, want 1", switches)
	}
	if len(exec.calls) != 1 {
		t.Errorf("Execute called %d times, want 1", len(exec.calls))
	}
}

func TestREPL_EndOfInputInContinuation(t *testing.T) {
	r, exec, _, _ := newREPL()

	send(r, "def f():\n\x04")

	if len(exec.calls) != 1 {
		t.Fatalf("Execute called %d times, want 1", len(exec.calls))
	}
	if exec.calls[0].src != "def f():\n" || exec.calls[0].kind != engine.BlockInput {
		t.Errorf("Execute(%q, %v)", exec.calls[0].src, exec.calls[0].kind)
	}
	if r.Mode() != ModeMain {
		t.Errorf("mode = %v, want main", r.Mode())
	}
}

func TestREPL_InterruptInContinuation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"after header", "def f():\n"},
		{"after body line", "def f():\n  x = 1\n"},
		{"with pending text", "def f():\n  x = 1\n  y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, exec, _, out := newREPL()
			send(r, tt.input)
			send(r, "\x03")

			if r.Mode() != ModeMain {
				t.Errorf("mode = %v, want main", r.Mode())
			}
			if r.Buffer() != "" {
				t.Errorf("buffer = %q, want empty", r.Buffer())
			}
			if len(exec.calls) != 0 {
				t.Errorf("Execute called %d times, want 0", len(exec.calls))
			}
			if !strings.HasSuffix(out.String(), "\r\n"+DefaultPS1) {
				t.Errorf("output %q does not end with a fresh prompt", out.String())
			}
		})
	}
}

func TestREPL_InterruptInMain(t *testing.T) {
	r, exec, _, out := newREPL()

	send(r, "abc")
	out.Reset()
	send(r, "\x03")

	if out.String() != "\r\n"+DefaultPS1+"abc" {
		t.Errorf("interrupt wrote %q", out.String())
	}
	if r.Buffer() != "abc" || r.Mode() != ModeMain {
		t.Errorf("buffer %q mode %v", r.Buffer(), r.Mode())
	}

	send(r, "d\n")
	if len(exec.calls) != 1 || exec.calls[0].src != "abcd" {
		t.Errorf("calls = %+v", exec.calls)
	}
}

func TestREPL_EmptyLine(t *testing.T) {
	r, exec, _, out := newREPL()
	out.Reset()

	send(r, "\n\r\n")

	if len(exec.calls) != 0 {
		t.Errorf("Execute called %d times on empty lines", len(exec.calls))
	}
	want := "\r\n" + DefaultPS1 + "\r\n" + DefaultPS1
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestREPL_RepeatedStatement(t *testing.T) {
	r, exec, _, _ := newREPL()

	send(r, "x\n")
	send(r, "x\n")

	if len(exec.calls) != 2 {
		t.Fatalf("Execute called %d times, want 2", len(exec.calls))
	}
	for i, c := range exec.calls {
		if c.src != "x" {
			t.Errorf("call %d src = %q, want x", i, c.src)
		}
	}
}

func TestREPL_Reset(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty line", ""},
		{"after a statement", "1+1\n"},
		{"in continuation", "def f():\n  x = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _, out := newREPL()
			send(r, tt.input)
			out.Reset()

			send(r, "\x02")

			if n := strings.Count(out.String(), banner); n != 1 {
				t.Errorf("banner written %d times, want 1", n)
			}
			if r.Mode() != ModeMain || r.Buffer() != "" {
				t.Errorf("mode %v buffer %q", r.Mode(), r.Buffer())
			}
			if !strings.HasSuffix(out.String(), DefaultPS1) {
				t.Errorf("output %q does not end with the primary prompt", out.String())
			}
		})
	}
}

func TestREPL_Exit(t *testing.T) {
	r, exec, host, out := newREPL()

	send(r, "\x04")
	if host.exits != 1 {
		t.Fatalf("RequestSessionExit called %d times, want 1", host.exits)
	}

	out.Reset()
	send(r, "1+1\n\x04")
	if host.exits != 1 {
		t.Errorf("RequestSessionExit called %d times after exit", host.exits)
	}
	if len(exec.calls) != 0 || out.Len() != 0 {
		t.Errorf("characters processed after exit: %d calls, output %q", len(exec.calls), out.String())
	}

	r.Init()
	send(r, "1+1\n")
	if len(exec.calls) != 1 {
		t.Errorf("Execute called %d times after Init, want 1", len(exec.calls))
	}
}

func TestREPL_ForcedExit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single statement", "exit()\n"},
		{"block", "def f():\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, exec, host, _ := newREPL()
			exec.outcome = engine.ForcedExit

			send(r, tt.input)
			send(r, "more\n")

			if host.exits != 1 {
				t.Errorf("RequestSessionExit called %d times, want 1", host.exits)
			}
			if len(exec.calls) != 1 {
				t.Errorf("Execute called %d times, want 1", len(exec.calls))
			}
		})
	}
}

func TestREPL_ErrorsKeepGoing(t *testing.T) {
	r, exec, host, _ := newREPL()
	exec.outcome = engine.ErrorReported

	send(r, "boom\n")
	send(r, "boom\n")

	if len(exec.calls) != 2 || host.exits != 0 || r.Mode() != ModeMain {
		t.Errorf("calls %d exits %d mode %v", len(exec.calls), host.exits, r.Mode())
	}
}

func TestREPL_IgnoredControls(t *testing.T) {
	r, exec, host, out := newREPL()
	out.Reset()

	send(r, "\x01\x05")

	if len(exec.calls) != 0 || host.exits != 0 || out.Len() != 0 {
		t.Errorf("ctrl-a/ctrl-e had effects: calls %d exits %d output %q", len(exec.calls), host.exits, out.String())
	}

	send(r, "def f():\n\x01\x05")
	if r.Mode() != ModeContinuation || r.Buffer() != "def f():\n" {
		t.Errorf("continuation disturbed: mode %v buffer %q", r.Mode(), r.Buffer())
	}
}
