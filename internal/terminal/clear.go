// Package terminal provides prompt input and line clearing for interactive
// commands.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// Width returns the width of the terminal behind f, or 80 when f is not a
// terminal.
func Width(f *os.File) int {
	if f != nil {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

// LinesFor returns how many terminal lines textLength characters occupy at
// width, plus the line the cursor moved to after Enter.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = 80
	}
	n := int(math.Ceil(float64(textLength) / float64(width)))
	if n < 1 {
		n = 1
	}
	return n + 1
}

// ClearPreviousLines erases the last textLength characters of echoed prompt
// and input from w, moving the cursor up as needed.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	lines := LinesFor(textLength, width)
	for i := 0; i < lines; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < lines-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
