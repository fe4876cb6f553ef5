// Package teletype holds the character sources of the host: they turn what
// the user types into the byte stream the line console reads.
package teletype

// Receiver is fed by a teletype. The host runtime implements it.
type Receiver interface {
	// Key delivers one typed character.
	Key(c byte)
	// Post delivers a host event, e.g. interrupts.SysQuit when the input
	// ends.
	Post(vector uint16)
}

// keyboard escape sequences, as sent by a VT100 in cursor key mode
var (
	seqUp     = []byte("\x1b[A")
	seqDown   = []byte("\x1b[B")
	seqRight  = []byte("\x1b[C")
	seqLeft   = []byte("\x1b[D")
	seqHome   = []byte("\x1b[H")
	seqEnd    = []byte("\x1b[F")
	seqDelete = []byte("\x1b[3~")
)
