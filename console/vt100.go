package console

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Video terminal emulation. the simpler, the better.
// Only the sequences the line editor and the shell produce are understood:
// cursor movement, line and screen erase. SGR attributes are swallowed.

// DefaultScrollback is the number of lines a VT100 keeps by default.
const DefaultScrollback = 1000

type vtState int

const (
	vtGround vtState = iota
	vtEscape
	vtCSI
)

// VT100 terminal definition
type VT100 struct {
	mu sync.Mutex

	lines    [][]rune
	maxLines int
	row, col int
	state    vtState
	params   []byte
	pending  []byte // incomplete utf-8 sequence
}

// NewVT100 creates a screen keeping at most maxLines lines of scrollback.
func NewVT100(maxLines int) *VT100 {
	if maxLines <= 0 {
		maxLines = DefaultScrollback
	}
	vt := &VT100{maxLines: maxLines}
	vt.Reset()
	return vt
}

// Reset clears the screen and homes the cursor.
func (vt *VT100) Reset() {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	vt.lines = [][]rune{{}}
	vt.row, vt.col = 0, 0
	vt.state = vtGround
	vt.params = vt.params[:0]
	vt.pending = vt.pending[:0]
}

// Write interprets p. It never fails.
func (vt *VT100) Write(p []byte) (int, error) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	for _, b := range p {
		vt.writeByte(b)
	}
	return len(p), nil
}

// Lines returns a copy of all lines, oldest first.
func (vt *VT100) Lines() []string {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	out := make([]string, len(vt.lines))
	for i, l := range vt.lines {
		out[i] = strings.TrimRight(string(l), " ")
	}
	return out
}

// String returns the screen content joined by newlines.
func (vt *VT100) String() string {
	return strings.Join(vt.Lines(), "\n")
}

// Cursor returns the cursor as display column and line index.
func (vt *VT100) Cursor() (x, y int) {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	line := vt.lines[vt.row]
	if vt.col > len(line) {
		return runewidth.StringWidth(string(line)) + vt.col - len(line), vt.row
	}
	return runewidth.StringWidth(string(line[:vt.col])), vt.row
}

func (vt *VT100) writeByte(b byte) {
	switch vt.state {
	case vtEscape:
		if b == '[' {
			vt.state = vtCSI
			vt.params = vt.params[:0]
		} else {
			vt.state = vtGround
		}
		return
	case vtCSI:
		if (b >= '0' && b <= '9') || b == ';' || b == '?' {
			vt.params = append(vt.params, b)
			return
		}
		vt.state = vtGround
		vt.csi(b)
		return
	}

	if len(vt.pending) > 0 || b >= utf8.RuneSelf {
		vt.pending = append(vt.pending, b)
		if !utf8.FullRune(vt.pending) {
			return
		}
		r, _ := utf8.DecodeRune(vt.pending)
		vt.pending = vt.pending[:0]
		vt.put(r)
		return
	}

	switch b {
	case 0x1b:
		vt.state = vtEscape
	case '\r':
		vt.col = 0
	case '\n':
		// the console output discipline maps NL to CR NL
		vt.newline()
	case '\b':
		if vt.col > 0 {
			vt.col--
		}
	case '\t':
		vt.col = (vt.col/8 + 1) * 8
		vt.pad()
	default:
		if b >= 0x20 && b != 0x7f {
			vt.put(rune(b))
		}
	}
}

func (vt *VT100) put(r rune) {
	line := vt.lines[vt.row]
	if vt.col < len(line) {
		line[vt.col] = r
	} else {
		vt.pad()
		line = append(vt.lines[vt.row], r)
	}
	vt.lines[vt.row] = line
	vt.col++
}

// pad fills the current line with spaces up to the cursor.
func (vt *VT100) pad() {
	for len(vt.lines[vt.row]) < vt.col {
		vt.lines[vt.row] = append(vt.lines[vt.row], ' ')
	}
}

func (vt *VT100) newline() {
	vt.col = 0
	vt.row++
	if vt.row == len(vt.lines) {
		vt.lines = append(vt.lines, []rune{})
	}
	if over := len(vt.lines) - vt.maxLines; over > 0 {
		vt.lines = vt.lines[over:]
		vt.row -= over
	}
}

// param returns the i-th numeric parameter or def.
func (vt *VT100) param(i, def int) int {
	fields := strings.Split(strings.TrimPrefix(string(vt.params), "?"), ";")
	if i >= len(fields) || fields[i] == "" {
		return def
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return def
	}
	return n
}

func (vt *VT100) csi(final byte) {
	switch final {
	case 'A':
		vt.row -= vt.param(0, 1)
		if vt.row < 0 {
			vt.row = 0
		}
	case 'B':
		vt.row += vt.param(0, 1)
		if vt.row >= len(vt.lines) {
			vt.row = len(vt.lines) - 1
		}
	case 'C':
		vt.col += vt.param(0, 1)
	case 'D':
		vt.col -= vt.param(0, 1)
		if vt.col < 0 {
			vt.col = 0
		}
	case 'H', 'f':
		vt.row = vt.param(0, 1) - 1
		vt.col = vt.param(1, 1) - 1
		if vt.row < 0 {
			vt.row = 0
		}
		if vt.col < 0 {
			vt.col = 0
		}
		for vt.row >= len(vt.lines) {
			vt.lines = append(vt.lines, []rune{})
		}
	case 'K':
		line := vt.lines[vt.row]
		switch vt.param(0, 0) {
		case 0:
			if vt.col < len(line) {
				vt.lines[vt.row] = line[:vt.col]
			}
		case 1:
			for i := 0; i < vt.col && i < len(line); i++ {
				line[i] = ' '
			}
		case 2:
			vt.lines[vt.row] = line[:0]
		}
	case 'J':
		switch vt.param(0, 0) {
		case 0:
			if vt.col < len(vt.lines[vt.row]) {
				vt.lines[vt.row] = vt.lines[vt.row][:vt.col]
			}
			vt.lines = vt.lines[:vt.row+1]
		case 2, 3:
			vt.lines = [][]rune{{}}
			vt.row, vt.col = 0, 0
		}
	}
	// 'm' and anything else: ignored
}
