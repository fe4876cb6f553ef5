// Package readline edits one line of console input at a time.
//
// The editor is fed one byte per call and draws on a VT100 compatible
// output. It edits the tail of a caller-owned byte slice, so a console can
// keep several continuation lines in the same buffer and only let the user
// edit the last one. Input is UTF-8: the cursor steps over whole runes and
// every rune takes one terminal column.
package readline

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// Control characters understood by the editor.
const (
	CtrlA     byte = 0x01
	CtrlB     byte = 0x02
	CtrlC     byte = 0x03
	CtrlD     byte = 0x04
	CtrlE     byte = 0x05
	CtrlF     byte = 0x06
	Backspace byte = 0x08
	Tab       byte = 0x09
	CtrlK     byte = 0x0b
	CtrlN     byte = 0x0e
	CtrlP     byte = 0x10
	CtrlU     byte = 0x15
	Esc       byte = 0x1b
	Delete    byte = 0x7f
)

// Kind discriminates a Result.
type Kind int

const (
	// Incomplete means the line is still being edited.
	Incomplete Kind = iota
	// Completed means a line terminator was received.
	Completed
	// Control means a control character the console has to act on.
	Control
)

// Result is returned for every processed byte.
type Result struct {
	Kind Kind
	// Text is the line typed since Init, set for Completed.
	Text string
	// Code is the control character, set for Control.
	Code byte
}

// Completer suggests words for tab completion.
type Completer interface {
	Complete(prefix string) []string
}

type escState int

const (
	escNone escState = iota
	escStart
	escBracket
	escDigit
	escO
)

// Editor is a single-line editor with history.
type Editor struct {
	out       io.Writer
	history   *History
	completer Completer

	line   *[]byte
	orig   int // first editable byte of *line
	cursor int // absolute index into *line
	prompt string

	esc      escState
	escParam byte
	histPos  int // -1 while editing a fresh line
	lastCR   bool

	// leading bytes of a multi-byte rune
	pending []byte
}

// New creates an editor drawing on out. history may be nil.
func New(out io.Writer, history *History) *Editor {
	return &Editor{
		out:     out,
		history: history,
		histPos: -1,
	}
}

// SetCompleter enables tab completion.
func (e *Editor) SetCompleter(c Completer) {
	e.completer = c
}

// Init starts editing a new line appended to *line and displays prompt.
func (e *Editor) Init(line *[]byte, prompt string) {
	e.line = line
	e.orig = len(*line)
	e.cursor = e.orig
	e.prompt = prompt
	e.esc = escNone
	e.histPos = -1
	e.pending = nil
	io.WriteString(e.out, prompt)
}

// Redisplay writes the prompt followed by the text edited so far, leaving
// the cursor where it was.
func (e *Editor) Redisplay() {
	io.WriteString(e.out, e.prompt)
	e.out.Write((*e.line)[e.orig:])
	e.moveBack(e.width(e.cursor, len(*e.line)))
}

// Text returns the text typed since Init.
func (e *Editor) Text() string {
	return string((*e.line)[e.orig:])
}

// ProcessChar feeds one input byte to the editor.
func (e *Editor) ProcessChar(c byte) Result {
	if e.lastCR && c == '\n' {
		// second half of a CR LF pair
		e.lastCR = false
		return Result{Kind: Incomplete}
	}
	e.lastCR = c == '\r'

	switch e.esc {
	case escStart:
		switch c {
		case '[':
			e.esc = escBracket
		case 'O':
			e.esc = escO
		default:
			e.esc = escNone
		}
		return Result{Kind: Incomplete}
	case escBracket:
		e.esc = escNone
		if c >= '0' && c <= '9' {
			e.esc = escDigit
			e.escParam = c
			return Result{Kind: Incomplete}
		}
		e.arrow(c)
		return Result{Kind: Incomplete}
	case escDigit:
		e.esc = escNone
		if c == '~' {
			switch e.escParam {
			case '1', '7':
				e.home()
			case '4', '8':
				e.end()
			case '3':
				e.deleteForward()
			}
		}
		return Result{Kind: Incomplete}
	case escO:
		e.esc = escNone
		switch c {
		case 'H':
			e.home()
		case 'F':
			e.end()
		}
		return Result{Kind: Incomplete}
	}

	if c >= utf8.RuneSelf {
		e.pending = append(e.pending, c)
		if utf8.FullRune(e.pending) {
			e.insert(e.pending)
			e.pending = nil
		}
		return Result{Kind: Incomplete}
	}
	e.pending = nil

	if c >= CtrlA && c <= CtrlE && len(*e.line) == e.orig {
		// control character on an empty line
		return Result{Kind: Control, Code: c}
	}

	switch {
	case c == CtrlA:
		e.home()
	case c == CtrlB:
		e.left()
	case c == CtrlC:
		return Result{Kind: Control, Code: CtrlC}
	case c == CtrlE:
		e.end()
	case c == CtrlF:
		e.right()
	case c == CtrlK:
		e.killToEnd()
	case c == CtrlN:
		e.historyNext()
	case c == CtrlP:
		e.historyPrev()
	case c == CtrlU:
		e.killToStart()
	case c == '\r' || c == '\n':
		io.WriteString(e.out, "\r\n")
		text := e.Text()
		if e.history != nil {
			e.history.Add(text)
		}
		return Result{Kind: Completed, Text: text}
	case c == Esc:
		e.esc = escStart
	case c == Backspace || c == Delete:
		e.backspace()
	case c == Tab:
		e.complete()
	case c >= 32:
		e.insert([]byte{c})
	}
	return Result{Kind: Incomplete}
}

func (e *Editor) arrow(c byte) {
	switch c {
	case 'A':
		e.historyPrev()
	case 'B':
		e.historyNext()
	case 'C':
		e.right()
	case 'D':
		e.left()
	case 'H':
		e.home()
	case 'F':
		e.end()
	}
}

func (e *Editor) moveBack(n int) {
	if n > 0 {
		fmt.Fprintf(e.out, "\x1b[%dD", n)
	}
}

func (e *Editor) moveForward(n int) {
	if n > 0 {
		fmt.Fprintf(e.out, "\x1b[%dC", n)
	}
}

// width is the number of columns taken by (*e.line)[from:to].
func (e *Editor) width(from, to int) int {
	return utf8.RuneCount((*e.line)[from:to])
}

// redraw repaints the line from index from, with the terminal cursor back
// columns right of it, and leaves the cursor at e.cursor.
func (e *Editor) redraw(from, back int) {
	e.moveBack(back)
	e.out.Write((*e.line)[from:])
	io.WriteString(e.out, "\x1b[K")
	e.moveBack(e.width(e.cursor, len(*e.line)))
}

func (e *Editor) home() {
	e.moveBack(e.width(e.orig, e.cursor))
	e.cursor = e.orig
}

func (e *Editor) end() {
	e.moveForward(e.width(e.cursor, len(*e.line)))
	e.cursor = len(*e.line)
}

func (e *Editor) left() {
	if e.cursor > e.orig {
		_, size := utf8.DecodeLastRune((*e.line)[e.orig:e.cursor])
		e.cursor -= size
		e.moveBack(1)
	}
}

func (e *Editor) right() {
	if e.cursor < len(*e.line) {
		_, size := utf8.DecodeRune((*e.line)[e.cursor:])
		e.cursor += size
		e.moveForward(1)
	}
}

func (e *Editor) insert(b []byte) {
	at := e.cursor
	l := *e.line
	if at == len(l) {
		// appending: nothing right of the cursor to repaint
		*e.line = append(l, b...)
		e.cursor += len(b)
		e.out.Write(b)
		return
	}
	*e.line = append(l[:at], append(b, l[at:]...)...)
	e.cursor += len(b)
	e.redraw(at, 0)
}

func (e *Editor) backspace() {
	if e.cursor <= e.orig {
		return
	}
	at := e.cursor
	_, size := utf8.DecodeLastRune((*e.line)[e.orig:at])
	l := *e.line
	*e.line = append(l[:at-size], l[at:]...)
	e.cursor -= size
	e.redraw(e.cursor, 1)
}

func (e *Editor) deleteForward() {
	if e.cursor >= len(*e.line) {
		return
	}
	_, size := utf8.DecodeRune((*e.line)[e.cursor:])
	l := *e.line
	*e.line = append(l[:e.cursor], l[e.cursor+size:]...)
	e.redraw(e.cursor, 0)
}

func (e *Editor) killToEnd() {
	*e.line = (*e.line)[:e.cursor]
	io.WriteString(e.out, "\x1b[K")
}

func (e *Editor) killToStart() {
	back := e.width(e.orig, e.cursor)
	l := *e.line
	*e.line = append(l[:e.orig], l[e.cursor:]...)
	e.cursor = e.orig
	e.redraw(e.orig, back)
}

// replace swaps the editable text for s and puts the cursor at the end.
func (e *Editor) replace(s string) {
	back := e.width(e.orig, e.cursor)
	*e.line = append((*e.line)[:e.orig], s...)
	e.cursor = len(*e.line)
	e.redraw(e.orig, back)
}

func (e *Editor) historyPrev() {
	if e.history == nil || e.histPos+1 >= e.history.Len() {
		return
	}
	e.histPos++
	e.replace(e.history.Get(e.histPos))
}

func (e *Editor) historyNext() {
	if e.history == nil || e.histPos < 0 {
		return
	}
	e.histPos--
	if e.histPos < 0 {
		e.replace("")
		return
	}
	e.replace(e.history.Get(e.histPos))
}

// complete extends the word left of the cursor. With several candidates
// the common prefix is inserted and the candidates are listed.
func (e *Editor) complete() {
	if e.completer == nil {
		return
	}
	start := e.cursor
	for start > e.orig && isWordByte((*e.line)[start-1]) {
		start--
	}
	prefix := string((*e.line)[start:e.cursor])
	matches := e.completer.Complete(prefix)
	if len(matches) == 0 {
		return
	}
	if len(matches) == 1 {
		e.insert([]byte(matches[0][len(prefix):]))
		return
	}

	sort.Strings(matches)
	common := commonPrefix(matches)
	if len(common) > len(prefix) {
		e.insert([]byte(common[len(prefix):]))
		return
	}

	io.WriteString(e.out, "\r\n")
	io.WriteString(e.out, strings.Join(matches, "  "))
	io.WriteString(e.out, "\r\n")
	e.Redisplay()
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		c >= 0x80
}

func commonPrefix(words []string) string {
	p := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, p) {
			p = p[:len(p)-1]
		}
	}
	return p
}
