package shell

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"vmrepl/engine"
)

func newShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	s, err := New(out, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, out
}

func TestShell_NeedsContinuation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"simple command", "echo hi", false},
		{"open if", "if true; then", true},
		{"open if with body", "if true; then\necho yes", true},
		{"closed if", "if true; then\necho yes\nfi", false},
		{"open for", "for i in 1 2 3; do", true},
		{"open function body", "f() {", true},
		{"unclosed single quote", "echo 'abc", true},
		{"unclosed double quote", "echo \"abc", true},
		{"trailing pipe", "echo hi |", true},
		{"syntax error is not continuation", "fi", false},
	}
	s, _ := newShell(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.NeedsContinuation(tt.src); got != tt.want {
				t.Errorf("NeedsContinuation(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestShell_Execute(t *testing.T) {
	s, out := newShell(t)

	got := s.Execute("echo hello", engine.SingleInput, engine.IsRepl)
	if got != engine.Completed {
		t.Errorf("Execute(echo) = %v, want %v", got, engine.Completed)
	}
	if out.String() != "hello\n" {
		t.Errorf("output = %q, want %q", out.String(), "hello\n")
	}
}

func TestShell_Execute_StatePersists(t *testing.T) {
	s, out := newShell(t)

	s.Execute("x=42", engine.SingleInput, engine.IsRepl)
	s.Execute("f() {\necho \"f:$x\"\n}\n", engine.BlockInput, engine.IsRepl)
	s.Execute("f", engine.SingleInput, engine.IsRepl)

	if out.String() != "f:42\n" {
		t.Errorf("output = %q, want %q", out.String(), "f:42\n")
	}
}

func TestShell_Execute_Errors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantStatus uint8
		wantOutput bool
	}{
		{"non-zero status", "false", 1, false},
		{"syntax error", "fi", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newShell(t)
			got := s.Execute(tt.src, engine.SingleInput, engine.IsRepl)
			if got != engine.ErrorReported {
				t.Errorf("Execute(%q) = %v, want %v", tt.src, got, engine.ErrorReported)
			}
			if s.status != tt.wantStatus {
				t.Errorf("status = %d, want %d", s.status, tt.wantStatus)
			}
			if (out.Len() > 0) != tt.wantOutput {
				t.Errorf("output = %q, wantOutput %v", out.String(), tt.wantOutput)
			}
		})
	}
}

func TestShell_Execute_Exit(t *testing.T) {
	for _, src := range []string{"exit", "exit 3"} {
		t.Run(src, func(t *testing.T) {
			s, _ := newShell(t)
			if got := s.Execute(src, engine.SingleInput, engine.IsRepl); got != engine.ForcedExit {
				t.Errorf("Execute(%q) = %v, want %v", src, got, engine.ForcedExit)
			}
		})
	}
}

func TestShell_Interrupt_Idle(t *testing.T) {
	s, out := newShell(t)

	// no statement running: must not panic or affect the next one
	s.Interrupt()
	if got := s.Execute("echo ok", engine.SingleInput, engine.IsRepl); got != engine.Completed {
		t.Errorf("Execute after idle Interrupt = %v, want %v", got, engine.Completed)
	}
	if !strings.Contains(out.String(), "ok") {
		t.Errorf("output = %q, want it to contain ok", out.String())
	}
}

func TestShell_Complete(t *testing.T) {
	s, _ := newShell(t)

	got := s.Complete("ec")
	if len(got) != 1 || got[0] != "echo" {
		t.Errorf("Complete(ec) = %v, want [echo]", got)
	}
	if got := s.Complete(""); got != nil {
		t.Errorf("Complete(\"\") = %v, want nil", got)
	}
	if got := s.Complete("zzz"); len(got) != 0 {
		t.Errorf("Complete(zzz) = %v, want empty", got)
	}
}

func TestShell_Interrupt_Running(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"busy loop", "while true; do :; done"},
		{"external command", "sleep 10"},
		{"block input", "for i in 1 2 3; do\nwhile true; do :; done\ndone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newShell(t)

			done := make(chan engine.Outcome, 1)
			go func() {
				done <- s.Execute(tt.src, engine.SingleInput, engine.AllowDebugInfo|engine.IsRepl)
			}()

			// Interrupt is a no-op until the statement is running
			deadline := time.After(5 * time.Second)
			var got engine.Outcome
		wait:
			for {
				s.Interrupt()
				select {
				case got = <-done:
					break wait
				case <-deadline:
					t.Fatal("statement was not interrupted")
				case <-time.After(10 * time.Millisecond):
				}
			}

			if got != engine.ErrorReported {
				t.Errorf("Execute(%q) after Interrupt = %v, want %v", tt.src, got, engine.ErrorReported)
			}
			if !strings.Contains(out.String(), "KeyboardInterrupt") {
				t.Errorf("output = %q, want KeyboardInterrupt", out.String())
			}
			if s.status != 130 {
				t.Errorf("status = %d, want 130", s.status)
			}

			// the next statement runs normally
			out.Reset()
			if got := s.Execute("echo alive", engine.SingleInput, engine.IsRepl); got != engine.Completed {
				t.Errorf("Execute after interrupt = %v, want %v", got, engine.Completed)
			}
			if out.String() != "alive\n" {
				t.Errorf("output = %q, want %q", out.String(), "alive\n")
			}
		})
	}
}
