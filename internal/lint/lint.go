// Package lint runs external linters over a source tree and collects their
// findings into a shared report. One linter runs per source category
// (script, markup, style, json, yaml); bundlint never implements lint rules
// itself, it only sequences the tools and normalises their output.
package lint

import (
	"context"
	"sort"
)

// Finding is a single linter-reported issue.
type Finding struct {
	// File is the path of the offending file, relative to the working
	// directory of the lint pass.
	File string

	// Line and Col locate the issue (1-based). Col may be 0 when the
	// linter does not report a column.
	Line int
	Col  int

	// Message is the human-readable description.
	Message string

	// Source names the tool that produced the finding.
	Source string

	// Rule is the tool-specific rule identifier, if any.
	Rule string
}

// Report accumulates findings and source file contents across all lint
// categories of one pass. Sources is keyed by file path and holds the file
// text for snippet rendering.
type Report struct {
	Findings []Finding
	Sources  map[string]string
}

// NewReport returns an empty report ready for use.
func NewReport() *Report {
	return &Report{Sources: make(map[string]string)}
}

// Add appends a finding to the report.
func (r *Report) Add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// AddSource records the text content of a file for snippet rendering.
func (r *Report) AddSource(file, content string) {
	if r.Sources == nil {
		r.Sources = make(map[string]string)
	}

	r.Sources[file] = content
}

// Files returns the distinct files with findings, sorted.
func (r *Report) Files() []string {
	seen := make(map[string]struct{})

	for _, f := range r.Findings {
		seen[f.File] = struct{}{}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}

	sort.Strings(files)

	return files
}

// ByFile returns the findings for a single file in report order.
func (r *Report) ByFile(file string) []Finding {
	var out []Finding

	for _, f := range r.Findings {
		if f.File == file {
			out = append(out, f)
		}
	}

	return out
}

// Linter lints a set of files and appends findings to report. It returns
// true when the files are clean. An error means the tool itself failed to
// run, not that it found issues.
type Linter interface {
	Lint(ctx context.Context, dir string, files []string, report *Report) (bool, error)
}
