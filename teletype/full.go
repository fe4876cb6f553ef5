package teletype

import (
	"unicode/utf8"

	"github.com/jroimartin/gocui"
)

// Full teletype: keystrokes arrive through the editor of a gocui view and
// are translated into the bytes a VT100 keyboard would send.
type Full struct {
	rcv Receiver
}

// NewFull returns a teletype feeding rcv.
func NewFull(rcv Receiver) *Full {
	return &Full{rcv: rcv}
}

// Attach makes v editable and routes its keystrokes to the receiver.
func (t *Full) Attach(v *gocui.View) {
	v.Editable = true
	v.Editor = gocui.EditorFunc(t.keystroke)
}

func (t *Full) keystroke(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	for _, b := range Translate(key, ch, mod) {
		t.rcv.Key(b)
	}
}

// Translate returns the bytes for one gocui key event, or nil for keys the
// console does not use.
func Translate(key gocui.Key, ch rune, mod gocui.Modifier) []byte {
	if ch != 0 {
		buf := make([]byte, 0, utf8.UTFMax+1)
		if mod == gocui.ModAlt {
			buf = append(buf, 0x1b)
		}
		return utf8.AppendRune(buf, ch)
	}

	switch key {
	case gocui.KeyArrowUp:
		return seqUp
	case gocui.KeyArrowDown:
		return seqDown
	case gocui.KeyArrowRight:
		return seqRight
	case gocui.KeyArrowLeft:
		return seqLeft
	case gocui.KeyHome:
		return seqHome
	case gocui.KeyEnd:
		return seqEnd
	case gocui.KeyDelete:
		return seqDelete
	case gocui.KeySpace:
		return []byte{' '}
	case gocui.KeyEnter:
		return []byte{'\r'}
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		return []byte{0x7f}
	}

	// KeyCtrlA..KeyCtrlZ, KeyTab and KeyEsc are their ASCII codes
	if key > 0 && key < 0x20 {
		return []byte{byte(key)}
	}
	return nil
}
