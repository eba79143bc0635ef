// Package report renders lint findings and bundle statistics as aligned
// terminal output: per-file finding tables, annotated source snippets,
// bundle stats tables, progress lines, and diffs of emitted assets between
// watch runs.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/bundlint/internal/bundle"
	"github.com/hupe1980/bundlint/internal/lint"
)

// ANSI escape codes used when color is enabled.
const (
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiReset  = "\033[0m"
)

// Renderer writes human-readable reports to a single writer, normally
// stderr. Rendering is side-band output only; it never influences
// pass/fail decisions.
type Renderer struct {
	w     io.Writer
	color bool
}

// NewRenderer creates a renderer. When color is false all ANSI codes are
// suppressed.
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

// paint wraps s in the given ANSI code when color is enabled.
func (r *Renderer) paint(code, s string) string {
	if !r.color {
		return s
	}

	return code + s + ansiReset
}

// Progress writes one progress line for a lint category, with the shared
// fractional counter across all categories.
func (r *Renderer) Progress(step, total int, label string) {
	pct := 0
	if total > 0 {
		pct = step * 100 / total
	}

	fmt.Fprintf(r.w, "%s lint %s\n",
		r.paint(ansiDim, fmt.Sprintf("[%d/%d %3d%%]", step, total, pct)), label)
}

// Findings writes all findings grouped per file, each group as an aligned
// table followed by annotated source snippets, then a summary line.
func (r *Renderer) Findings(rep *lint.Report) {
	for _, file := range rep.Files() {
		findings := rep.ByFile(file)

		fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiBold, file))

		tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)

		for _, f := range findings {
			_, _ = fmt.Fprintf(tw, "  %d:%d\t%s\t%s\t%s\n",
				f.Line, f.Col, r.paint(ansiRed, "error"), f.Message, r.paint(ansiDim, f.Rule))
		}

		_ = tw.Flush()

		if src, ok := rep.Sources[file]; ok {
			for _, f := range findings {
				frame := CodeFrame(src, f.Line, f.Col, 2)
				if frame != "" {
					fmt.Fprintf(r.w, "\n%s\n", indent(frame, "  "))
				}
			}
		}
	}

	if n := len(rep.Findings); n > 0 {
		fmt.Fprintf(r.w, "\n%s\n",
			r.paint(ansiRed+ansiBold, fmt.Sprintf("✖ %d problem(s) in %d file(s)", n, len(rep.Files()))))
	}
}

// BundleStats writes the bundler's report as aligned tables: one row per
// entrypoint with its assets, the largest modules, and any errors or
// warnings.
func (r *Renderer) BundleStats(stats *bundle.Stats) {
	fmt.Fprintf(r.w, "\n%s", r.paint(ansiBold, "bundle"))

	if stats.Hash != "" {
		fmt.Fprintf(r.w, " %s", r.paint(ansiDim, stats.Hash))
	}

	if stats.Time > 0 {
		fmt.Fprintf(r.w, " %s", r.paint(ansiDim, fmt.Sprintf("(%dms)", stats.Time)))
	}

	fmt.Fprintln(r.w)

	r.entrypointTable(stats)
	r.moduleTable(stats)

	for _, e := range stats.Errors {
		fmt.Fprintf(r.w, "%s %s\n", r.paint(ansiRed, "error:"), messageLine(e))
	}

	for _, warn := range stats.Warnings {
		fmt.Fprintf(r.w, "%s %s\n", r.paint(ansiYellow, "warning:"), messageLine(warn))
	}
}

// entrypointTable writes one row per entrypoint asset.
func (r *Renderer) entrypointTable(stats *bundle.Stats) {
	if len(stats.Entrypoints) == 0 {
		return
	}

	names := make([]string, 0, len(stats.Entrypoints))
	for name := range stats.Entrypoints {
		names = append(names, name)
	}

	sort.Strings(names)

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  ENTRYPOINT\tASSET\tSIZE")

	for _, name := range names {
		for _, asset := range stats.Entrypoints[name].Assets {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, asset.Name, humanSize(asset.Size))
		}
	}

	_ = tw.Flush()
}

// moduleTable writes the largest modules, capped at ten rows.
func (r *Renderer) moduleTable(stats *bundle.Stats) {
	if len(stats.Modules) == 0 {
		return
	}

	modules := append([]bundle.Module(nil), stats.Modules...)
	sort.Slice(modules, func(i, j int) bool { return modules[i].Size > modules[j].Size })

	if len(modules) > 10 {
		modules = modules[:10]
	}

	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  MODULE\tSIZE")

	for _, m := range modules {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", m.Name, humanSize(m.Size))
	}

	_ = tw.Flush()
}

// RawBundlerOutput surfaces verbatim bundler stdout that failed to parse
// as a stats document.
func (r *Renderer) RawBundlerOutput(raw []byte) {
	fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiRed, "bundler output was not parseable as stats:"))
	fmt.Fprintln(r.w, indent(strings.TrimRight(string(raw), "\n"), "  "))
}

// ChangedFiles writes the deduplicated list of files that triggered a
// rerun.
func (r *Renderer) ChangedFiles(paths []string) {
	fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiBold, fmt.Sprintf("%d file(s) changed:", len(paths))))

	for _, p := range paths {
		fmt.Fprintf(r.w, "  %s\n", p)
	}
}

// Result writes the overall pass/fail line for one run.
func (r *Renderer) Result(ok bool) {
	if ok {
		fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiGreen+ansiBold, "✔ build succeeded"))
		return
	}

	fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiRed+ansiBold, "✖ build failed"))
}

// IdleBanner writes the between-runs banner in watch mode.
func (r *Renderer) IdleBanner() {
	fmt.Fprintf(r.w, "\n%s\n", r.paint(ansiCyan, "watching for changes..."))
}

// messageLine flattens a bundler message to a single line.
func messageLine(m bundle.Message) string {
	msg := strings.TrimSpace(m.Message)
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}

	if m.Module != "" {
		return fmt.Sprintf("%s: %s", m.Module, msg)
	}

	return msg
}

// humanSize formats a byte count in KiB above 1024 bytes.
func humanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	return fmt.Sprintf("%.1f KiB", float64(n)/1024)
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}

	return strings.Join(lines, "\n")
}
