package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules_MissingFileIsEmpty(t *testing.T) {
	rules, err := LoadRules(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoadRules_ParsesCategories(t *testing.T) {
	dir := t.TempDir()

	content := `script:
  args: ["--max-warnings", "0"]
  disable: ["no-console"]
yaml:
  disable: ["line-length", "document-start"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, RulesFileName), []byte(content), 0o644))

	rules, err := LoadRules(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"--max-warnings", "0"}, rules["script"].Args)
	assert.Equal(t, []string{"no-console"}, rules["script"].Disable)
	assert.Equal(t, []string{"line-length", "document-start"}, rules["yaml"].Disable)
	assert.Empty(t, rules["style"].Args)
}

func TestLoadRules_UnknownCategory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RulesFileName), []byte("fortran:\n  args: [\"-x\"]\n"), 0o644))

	_, err := LoadRules(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "fortran"`)
}

func TestLoadRules_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, RulesFileName), []byte(":\tnot yaml"), 0o644))

	_, err := LoadRules(dir)
	require.Error(t, err)
}
