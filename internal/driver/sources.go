package driver

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"earlyret/internal/syntax"
)

// declSuffixes mark type declaration files: they hold no code to lower.
var declSuffixes = []string{".d.ts", ".d.mts", ".d.cts"}

func isDeclaration(path string) bool {
	return slices.ContainsFunc(declSuffixes, func(s string) bool { return strings.HasSuffix(path, s) })
}

// ListSources returns the sorted JavaScript/TypeScript files under dir.
// node_modules, dot-directories and the directories in exclude are not entered;
// the last keeps a nested --out directory from being lowered again.
func ListSources(dir string, exclude ...string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		if abs, err := filepath.Abs(e); err == nil {
			skip[abs] = true
		}
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			if syntax.HasSourceExt(path) && !isDeclaration(path) {
				files = append(files, path)
			}
			return nil
		case path == dir:
			return nil
		}
		name := d.Name()
		if name == "node_modules" || (len(name) > 1 && name[0] == '.') {
			return filepath.SkipDir
		}
		if abs, err := filepath.Abs(path); err == nil && skip[abs] {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	slices.Sort(files)
	return files, nil
}

// excludedDirs lists the directories a walk of the inputs must not enter.
func (o Options) excludedDirs() []string {
	if o.Output == OutputDir && o.OutDir != "" {
		return []string{o.OutDir}
	}
	return nil
}

// Sources lists the files LowerDir would lower for dir under these options.
func (o Options) Sources(dir string) ([]string, error) {
	return ListSources(dir, o.excludedDirs()...)
}
