package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Include fragments let deployments keep secrets and per-site overrides out of
// the main file, conf.d style. Each fragment is plain YAML with the same shape
// as Config and overlays whatever Load parsed so far; a fragment may itself
// list includes. Depth is capped so a typo cannot recurse forever.
const maxIncludeDepth = 10

func applyIncludes(cfg *Config, baseDir string, visited map[string]bool, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("config includes: nesting deeper than %d levels", maxIncludeDepth)
	}
	patterns := cfg.Includes
	cfg.Includes = nil

	for _, pattern := range patterns {
		files, err := expandIncludePattern(pattern, baseDir)
		if err != nil {
			return err
		}
		for _, f := range files {
			abs, err := filepath.Abs(f)
			if err != nil {
				return fmt.Errorf("config includes: resolve %q: %w", f, err)
			}
			if visited[abs] {
				return fmt.Errorf("config includes: circular include %q", abs)
			}
			visited[abs] = true
			if err := overlayFragment(cfg, abs, visited, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandIncludePattern resolves one includes entry relative to the directory
// of the file that listed it. Fragments must stay inside that directory; a
// glob that matches nothing is fine, a literal path that does not exist is
// reported when we try to read it.
func expandIncludePattern(pattern, baseDir string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(baseDir, pattern)
	}
	pattern = filepath.Clean(pattern)

	if rel, err := filepath.Rel(baseDir, pattern); err == nil && strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("config includes: path %q escapes config directory", pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("config includes: glob %q: %w", pattern, err)
	}
	if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}
	return matches, nil
}

// overlayFragment parses one fragment onto cfg and recurses into any includes
// the fragment declares, relative to the fragment's own directory.
func overlayFragment(cfg *Config, path string, visited map[string]bool, depth int) error {
	if err := validatePermissions(path); err != nil {
		return fmt.Errorf("config includes: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config includes: read %q: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}

	cfg.Includes = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config includes: parse %q: %w", path, err)
	}
	if len(cfg.Includes) > 0 {
		return applyIncludes(cfg, filepath.Dir(path), visited, depth+1)
	}
	return nil
}
