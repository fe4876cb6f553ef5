package readline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewHistory(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, DefaultHistorySize},
		{-5, DefaultHistorySize},
		{7, 7},
	}
	for _, tt := range tests {
		h := NewHistory("", tt.size)
		if h.maxSize != tt.want {
			t.Errorf("NewHistory(%d).maxSize = %d, want %d", tt.size, h.maxSize, tt.want)
		}
	}
}

func TestHistory_Add(t *testing.T) {
	h := NewHistory("", 10)

	h.Add("ls")
	h.Add("")
	h.Add("ls")
	h.Add("pwd")
	h.Add("ls")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestHistory_Add_MaxSize(t *testing.T) {
	h := NewHistory("", 3)

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")
	h.Add("cmd4") // evicts cmd1

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if got := h.Get(2); got != "cmd2" {
		t.Errorf("oldest entry = %q, want cmd2", got)
	}
}

func TestHistory_Get(t *testing.T) {
	h := NewHistory("", 10)
	h.Add("first")
	h.Add("second")
	h.Add("third")

	tests := []struct {
		index int
		want  string
	}{
		{0, "third"},
		{1, "second"},
		{2, "first"},
		{3, ""},
		{-1, ""},
		{100, ""},
	}
	for _, tt := range tests {
		if got := h.Get(tt.index); got != tt.want {
			t.Errorf("Get(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".vmrepl", "history")

	h := NewHistory(file, 10)
	h.Add("echo one")
	h.Add("echo two")
	if err := h.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("history file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("history file mode = %o, want 600", perm)
	}

	h2 := NewHistory(file, 10)
	if err := h2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h2.Len() != 2 || h2.Get(0) != "echo two" || h2.Get(1) != "echo one" {
		t.Errorf("loaded entries = [%q %q] (len %d)", h2.Get(1), h2.Get(0), h2.Len())
	}
}

func TestHistory_Load_Truncates(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	lines := []string{"a", "b", "c", "d", "e"}
	if err := os.WriteFile(file, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(file, 2)
	if err := h.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h.Len() != 2 || h.Get(0) != "e" || h.Get(1) != "d" {
		t.Errorf("loaded %d entries, newest %q", h.Len(), h.Get(0))
	}
}

func TestHistory_Load_NonexistentFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"), 10)
	if err := h.Load(); err != nil {
		t.Errorf("Load of nonexistent file should not error: %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_NoFile(t *testing.T) {
	h := NewHistory("", 10)
	h.Add("x")
	if err := h.Save(); err != nil {
		t.Errorf("Save without file: %v", err)
	}
	if err := h.Load(); err != nil {
		t.Errorf("Load without file: %v", err)
	}
}
