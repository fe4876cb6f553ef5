//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package teletype

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// enterRawTerm switches fd to raw input. Output processing stays on, so a
// lone '\n' still starts a new line.
func enterRawTerm(fd int) (func() error, error) {
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("get terminal attributes: %w", err)
	}

	termRestore := *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL | unix.IXON
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	termstate.Cc[unix.VMIN] = 1
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &termstate); err != nil {
		return nil, fmt.Errorf("set terminal attributes: %w", err)
	}

	return func() error {
		return unix.IoctlSetTermios(fd, ioctlSetTermios, &termRestore)
	}, nil
}
