package runtimeio

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether r is a terminal. Anything that is not an
// *os.File, such as a test buffer, counts as interactive.
func IsInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}
