package report

import (
	"fmt"
	"strings"
)

// CodeFrame renders the source lines around line with a caret under col,
// e.g.:
//
//	 2 | const x = 1
//	 3 | console.log(x)
//	   |         ^
//	 4 | export default x
//
// context is the number of lines shown before and after. An out-of-range
// line yields an empty string.
func CodeFrame(source string, line, col, context int) string {
	lines := strings.Split(source, "\n")

	if line < 1 || line > len(lines) {
		return ""
	}

	start := line - context
	if start < 1 {
		start = 1
	}

	end := line + context
	if end > len(lines) {
		end = len(lines)
	}

	width := len(fmt.Sprint(end))

	var b strings.Builder

	for n := start; n <= end; n++ {
		fmt.Fprintf(&b, "%*d | %s\n", width, n, lines[n-1])

		if n == line && col > 0 {
			fmt.Fprintf(&b, "%s | %s^\n", strings.Repeat(" ", width), caretPad(lines[n-1], col))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// caretPad builds the whitespace preceding the caret, preserving tabs from
// the source line so the caret stays aligned under col (1-based).
func caretPad(line string, col int) string {
	var b strings.Builder

	for i := 0; i < col-1; i++ {
		if i < len(line) && line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}

	return b.String()
}
