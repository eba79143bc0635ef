package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates the given relative files under dir.
func writeTree(t *testing.T, dir string, files ...string) {
	t.Helper()

	for _, f := range files {
		full := filepath.Join(dir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
}

func TestDiscover_BucketsByExtension(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir,
		"src/app.js",
		"src/util.mjs",
		"index.html",
		"css/site.css",
		"data/config.json",
		"deploy.yaml",
	)

	js, err := Discover(dir, []string{"js", "mjs", "cjs"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "app.js"), filepath.Join("src", "util.mjs")}, js)

	html, err := Discover(dir, []string{"html", "htm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, html)
}

func TestDiscover_SkipsHiddenAndVendoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir,
		"src/app.js",
		".git/hooks/pre-commit.js",
		"node_modules/lib/index.js",
		"dist/bundle.js",
		"vendor/dep.js",
		".hidden.js",
	)

	js, err := Discover(dir, []string{"js"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("src", "app.js")}, js)
}

func TestDiscover_CaseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "INDEX.HTML", "page.Htm")

	html, err := Discover(dir, []string{"html", "htm"})
	require.NoError(t, err)
	assert.Len(t, html, 2)
}

func TestDiscover_EmptyTree(t *testing.T) {
	files, err := Discover(t.TempDir(), []string{"js"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCategories_FixedOrder(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 5)

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"script", "markup", "style", "json", "yaml"}, names)
}
