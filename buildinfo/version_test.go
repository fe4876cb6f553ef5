package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.Commit != Commit || info.BuildTime != BuildTime {
		t.Errorf("Get() = %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestString(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if s := String(); !strings.HasPrefix(s, "v1.2.3 (") {
		t.Errorf("String() = %q", s)
	}
}

func TestBanner(t *testing.T) {
	b := Banner("shell")
	if !strings.HasPrefix(b, "vmrepl "+Version+" on shell;") {
		t.Errorf("Banner() = %q", b)
	}
	if strings.ContainsAny(b, "\r\n") {
		t.Errorf("Banner() contains a line break: %q", b)
	}
}
