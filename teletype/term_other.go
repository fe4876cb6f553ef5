//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package teletype

import "golang.org/x/term"

func enterRawTerm(fd int) (func() error, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error {
		return term.Restore(fd, state)
	}, nil
}
