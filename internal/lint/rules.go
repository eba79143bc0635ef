package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RulesFileName is the per-project rule options file looked up in the
// working directory.
const RulesFileName = ".bundlint.rules.yaml"

// CategoryRules holds per-category linter tweaks from the rules file.
type CategoryRules struct {
	// Args are extra arguments passed to the linter before the file list.
	Args []string `yaml:"args"`

	// Disable lists rule ids whose findings are dropped.
	Disable []string `yaml:"disable"`
}

// Rules maps a category name to its tweaks.
type Rules map[string]CategoryRules

// LoadRules reads the rules file from dir. A missing file yields empty
// rules; a malformed file is an error.
func LoadRules(dir string) (Rules, error) {
	data, err := os.ReadFile(filepath.Join(dir, RulesFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Rules{}, nil
		}

		return nil, fmt.Errorf("reading %s: %w", RulesFileName, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", RulesFileName, err)
	}

	for category := range rules {
		if !validCategory(category) {
			return nil, fmt.Errorf("%s: unknown category %q", RulesFileName, category)
		}
	}

	return rules, nil
}

// validCategory reports whether name is one of the fixed lint categories.
func validCategory(name string) bool {
	for _, c := range Categories() {
		if c.Name == name {
			return true
		}
	}

	return false
}
