package diagfmt

import (
	"path/filepath"

	"earlyret/internal/source"
)

// PathMode is how reports print file paths.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

var pathModeNames = [...]string{
	PathModeAuto:     "auto",
	PathModeAbsolute: "absolute",
	PathModeRelative: "relative",
	PathModeBasename: "basename",
}

var pathModeAliases = map[string]PathMode{"": PathModeAuto, "abs": PathModeAbsolute, "rel": PathModeRelative, "base": PathModeBasename}

// ParsePathMode accepts a mode name or its short alias.
func ParsePathMode(s string) (PathMode, bool) {
	if m, ok := pathModeAliases[s]; ok {
		return m, true
	}
	for m, name := range pathModeNames {
		if name == s {
			return PathMode(m), true
		}
	}
	return PathModeAuto, false
}

func (m PathMode) String() string {
	if int(m) < len(pathModeNames) {
		return pathModeNames[m]
	}
	return pathModeNames[PathModeAuto]
}

// autoPathLimit is the length from which auto mode shortens absolute paths.
const autoPathLimit = 40

// Display renders path for a report. Relative mode falls back to the path as
// given when it cannot be made relative to base.
func (m PathMode) Display(path, base string) string {
	switch m {
	case PathModeAbsolute:
		if abs, err := source.AbsolutePath(path); err == nil {
			return abs
		}
	case PathModeRelative:
		if rel, err := source.RelativePath(path, base); err == nil {
			return rel
		}
	case PathModeBasename:
		return source.BaseName(path)
	default:
		// короткий или относительный путь оставляем как есть
		if len(path) >= autoPathLimit && filepath.IsAbs(path) {
			return source.BaseName(path)
		}
	}
	return path
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // строки контекста вокруг основной
	PathMode  PathMode
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
}
