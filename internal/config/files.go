package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolveInputs returns the files to estimate for path. A directory expands
// through the Files and Exclude globs; anything else, including a path that
// does not exist, is returned unchanged so the estimator can report it.
func (c *Config) ResolveInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return []string{path}, nil
	}
	return c.ResolveFiles(path)
}

// ResolveFiles expands the Files globs under rootPath, minus Exclude, sorted
func (c *Config) ResolveFiles(rootPath string) ([]string, error) {
	fileSet := make(map[string]bool)
	for _, pattern := range c.Files {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rootPath, pattern)
		}

		matches, err := expandGlob(pattern)
		if err != nil {
			// Silently skip invalid patterns
			continue
		}

		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && !info.IsDir() {
				fileSet[match] = true
			}
		}
	}

	for _, pattern := range c.Exclude {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rootPath, pattern)
		}

		matches, err := expandGlob(pattern)
		if err != nil {
			continue
		}

		for _, match := range matches {
			delete(fileSet, match)
		}
	}

	result := make([]string, 0, len(fileSet))
	for f := range fileSet {
		result = append(result, f)
	}
	sort.Strings(result)

	return result, nil
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree
func expandDoubleStarGlob(pattern string) ([]string, error) {
	var results []string

	parts := strings.SplitN(pattern, "**", 2)
	if len(parts) != 2 {
		return filepath.Glob(pattern)
	}

	baseDir := filepath.Clean(parts[0])
	if baseDir == "" {
		baseDir = "."
	}
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	err := filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		if info.IsDir() {
			return nil
		}

		if suffix == "" {
			results = append(results, path)
			return nil
		}

		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}

		if matchSuffix(relPath, suffix) {
			results = append(results, path)
		}

		return nil
	})

	return results, err
}

// matchSuffix checks if a path matches a suffix pattern (after **)
func matchSuffix(path, pattern string) bool {
	pattern = strings.TrimPrefix(pattern, string(filepath.Separator))

	// If pattern has no directory component, match against filename
	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	matched, _ := filepath.Match(pattern, path)
	if matched {
		return true
	}

	// Also try matching just the trailing components
	if len(path) > len(pattern) {
		tail := path[len(path)-len(pattern):]
		matched, _ = filepath.Match(pattern, tail)
		return matched
	}

	return false
}
