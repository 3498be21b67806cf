package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/htmlint/internal/types"
	"github.com/jonathan/htmlint/internal/wrapping"
)

// ExpandPatterns expands glob patterns in order. Existing files and plain
// paths are kept as given so that missing files can be reported during
// discovery; patterns that match nothing are passed to onEmpty.
func ExpandPatterns(patterns []string, onEmpty func(pattern string)) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if _, err := os.Stat(pattern); err == nil || !strings.ContainsAny(pattern, "*?[") {
			paths = append(paths, pattern)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && onEmpty != nil {
			onEmpty(pattern)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// Discover builds the worklist from candidate paths, preserving their order.
// Paths that do not exist or are not regular files are passed to onMissing and
// left out. Repeated paths are kept once.
func Discover(candidates []string, tmplExt string, onMissing func(path string, err error)) []types.WorkItem {
	items := make([]types.WorkItem, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, path := range candidates {
		if seen[path] {
			continue
		}

		info, err := os.Stat(path)
		if err == nil && !info.Mode().IsRegular() {
			err = fmt.Errorf("%s is not a regular file", path)
		}
		if err != nil {
			if onMissing != nil {
				onMissing(path, err)
			}
			continue
		}

		seen[path] = true
		items = append(items, types.WorkItem{
			Path:       path,
			IsTemplate: wrapping.IsTemplate(path, tmplExt),
		})
	}

	return items
}
