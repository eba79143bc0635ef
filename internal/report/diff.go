package report

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// AssetDiff computes a unified diff between the asset lists of two
// consecutive runs. The returned string is empty when nothing changed.
func AssetDiff(prev, curr []string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        terminated(prev),
		B:        terminated(curr),
		FromFile: "previous build",
		ToFile:   "current build",
		Context:  3,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("computing asset diff: %w", err)
	}

	return unified, nil
}

// WriteAssetDiff renders a unified asset diff with colored +/- lines.
func (r *Renderer) WriteAssetDiff(unified string) {
	if unified == "" {
		return
	}

	fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiBold, "assets changed:"))

	for _, line := range strings.Split(strings.TrimRight(unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprintln(r.w, r.paint(ansiBold, line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprintln(r.w, r.paint(ansiCyan, line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprintln(r.w, r.paint(ansiGreen, line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprintln(r.w, r.paint(ansiRed, line))
		default:
			fmt.Fprintln(r.w, line)
		}
	}
}

// terminated appends a newline to every element, as difflib expects
// line-terminated input.
func terminated(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item + "\n"
	}

	return out
}
