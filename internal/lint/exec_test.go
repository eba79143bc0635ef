package lint

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTool writes an executable shell script standing in for an external
// linter and returns its path.
func writeTool(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script test tools are not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "fake-linter")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	return path
}

func testCategory() Category {
	return Category{
		Name:       "script",
		Extensions: []string{"js"},
		Command:    "eslint",
		Args:       []string{"--format", "json"},
		Dialect:    DialectESLint,
	}
}

func TestExecLinter_NoFilesSkipsTool(t *testing.T) {
	// The command does not even need to exist when there is nothing to lint.
	l := NewExecLinter(testCategory(), WithCommand("definitely-not-installed-tool"))

	rep := NewReport()
	clean, err := l.Lint(context.Background(), t.TempDir(), nil, rep)
	require.NoError(t, err)
	assert.True(t, clean)
	assert.Empty(t, rep.Findings)
}

func TestExecLinter_CleanRun(t *testing.T) {
	tool := writeTool(t, `echo '[]'`)

	l := NewExecLinter(testCategory(), WithCommand(tool), WithLogger(slog.New(slog.DiscardHandler)))

	rep := NewReport()
	clean, err := l.Lint(context.Background(), t.TempDir(), []string{"a.js"}, rep)
	require.NoError(t, err)
	assert.True(t, clean)
	assert.Empty(t, rep.Findings)
}

func TestExecLinter_FindingsFailTheCategory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("console.log(1)\nvar x\n"), 0o644))

	out := `[{"filePath":"a.js","messages":[{"line":1,"column":1,"message":"Unexpected console statement.","ruleId":"no-console"}]}]`
	tool := writeTool(t, fmt.Sprintf(`echo '%s'; exit 1`, out))

	l := NewExecLinter(testCategory(), WithCommand(tool), WithLogger(slog.New(slog.DiscardHandler)))

	rep := NewReport()
	clean, err := l.Lint(context.Background(), dir, []string{"a.js"}, rep)
	require.NoError(t, err, "a non-zero exit with findings is a lint failure, not an error")
	assert.False(t, clean)

	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "no-console", rep.Findings[0].Rule)

	// Source content is loaded for snippet rendering.
	assert.Contains(t, rep.Sources["a.js"], "console.log(1)")
}

func TestExecLinter_DisabledRulesAreDropped(t *testing.T) {
	out := `[{"filePath":"a.js","messages":[` +
		`{"line":1,"column":1,"message":"Unexpected console statement.","ruleId":"no-console"},` +
		`{"line":2,"column":1,"message":"'x' is defined but never used.","ruleId":"no-unused-vars"}]}]`
	tool := writeTool(t, fmt.Sprintf(`echo '%s'; exit 1`, out))

	l := NewExecLinter(testCategory(),
		WithCommand(tool),
		WithDisabledRules([]string{"no-console"}),
		WithLogger(slog.New(slog.DiscardHandler)),
	)

	rep := NewReport()
	clean, err := l.Lint(context.Background(), t.TempDir(), []string{"a.js"}, rep)
	require.NoError(t, err)
	assert.False(t, clean)

	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "no-unused-vars", rep.Findings[0].Rule)
}

func TestExecLinter_ToolCrashIsAnError(t *testing.T) {
	tool := writeTool(t, `echo "cannot load config" >&2; exit 2`)

	l := NewExecLinter(testCategory(), WithCommand(tool), WithLogger(slog.New(slog.DiscardHandler)))

	rep := NewReport()
	_, err := l.Lint(context.Background(), t.TempDir(), []string{"a.js"}, rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot load config")
}

func TestExecLinter_MissingToolIsAnError(t *testing.T) {
	l := NewExecLinter(testCategory(), WithCommand("definitely-not-installed-tool"))

	rep := NewReport()
	_, err := l.Lint(context.Background(), t.TempDir(), []string{"a.js"}, rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found on PATH")
}

func TestExecLinter_AbsolutePathsNormalised(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "sub", "a.js")

	out := fmt.Sprintf(`[{"filePath":"%s","messages":[{"line":1,"column":1,"message":"m","ruleId":"r"}]}]`, abs)
	tool := writeTool(t, fmt.Sprintf(`echo '%s'; exit 1`, out))

	l := NewExecLinter(testCategory(), WithCommand(tool), WithLogger(slog.New(slog.DiscardHandler)))

	rep := NewReport()
	_, err := l.Lint(context.Background(), dir, []string{filepath.Join("sub", "a.js")}, rep)
	require.NoError(t, err)

	require.Len(t, rep.Findings, 1)
	assert.Equal(t, filepath.Join("sub", "a.js"), rep.Findings[0].File)
}

func TestReport_FilesAndByFile(t *testing.T) {
	rep := NewReport()
	rep.Add(Finding{File: "b.js", Line: 1, Message: "one"})
	rep.Add(Finding{File: "a.js", Line: 2, Message: "two"})
	rep.Add(Finding{File: "b.js", Line: 3, Message: "three"})

	assert.Equal(t, []string{"a.js", "b.js"}, rep.Files())

	byB := rep.ByFile("b.js")
	require.Len(t, byB, 2)
	assert.Equal(t, "one", byB[0].Message)
	assert.Equal(t, "three", byB[1].Message)
}
