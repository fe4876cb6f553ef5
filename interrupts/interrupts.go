package interrupts

/**
 * Separate package exists mainly in order to avoid cyclic imports
 * between the host event loop and the character sources.
 */

// Interrupt type - used to signal an incoming host event.
// Data carries the character for KeyIn and is zero otherwise.
type Interrupt struct {
	Vector uint16
	Data   byte
}

// host event vectors:

// SysCreate : the application was created
const SysCreate = 001

// SysActive : the application came to the foreground
const SysActive = 002

// SysPaint : the screen has to be redrawn
const SysPaint = 003

// SysInactive : the application went to the background
const SysInactive = 004

// SysQuit : the application is asked to quit
const SysQuit = 005

// KeyIn : sent when a key is punched on the keyboard
const KeyIn = 060

// Tick : redraw timer
const Tick = 0100

// Name returns a printable name of the vector.
func Name(vector uint16) string {
	switch vector {
	case SysCreate:
		return "create"
	case SysActive:
		return "active"
	case SysPaint:
		return "paint"
	case SysInactive:
		return "inactive"
	case SysQuit:
		return "quit"
	case KeyIn:
		return "key"
	case Tick:
		return "tick"
	}
	return "unknown"
}

// Key returns the KeyIn interrupt for character c.
func Key(c byte) Interrupt {
	return Interrupt{Vector: KeyIn, Data: c}
}
