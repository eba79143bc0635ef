package lint

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Directories never descended into during discovery.
var skippedDirs = map[string]struct{}{
	"node_modules": {},
	"dist":         {},
	"vendor":       {},
}

// Discover walks dir and returns the relative paths of files whose
// extension is in exts. Hidden files and directories, node_modules, and
// build output directories are skipped; permission errors on individual
// entries are ignored.
func Discover(dir string, exts []string) ([]string, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = struct{}{}
	}

	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries are skipped rather than fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path == dir {
				return nil
			}

			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if _, skip := skippedDirs[name]; skip {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if _, ok := extSet[ext]; !ok {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}

		files = append(files, rel)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}
