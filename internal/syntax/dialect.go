package syntax

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjavascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Dialect selects the grammar used to parse a source file.
type Dialect uint8

const (
	DialectJavaScript Dialect = iota + 1
	DialectTypeScript
	DialectTSX
)

func (d Dialect) String() string {
	switch d {
	case DialectJavaScript:
		return "javascript"
	case DialectTypeScript:
		return "typescript"
	case DialectTSX:
		return "tsx"
	default:
		return "unknown"
	}
}

// ParseDialect converts a configuration string to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js", "jsx":
		return DialectJavaScript, nil
	case "typescript", "ts":
		return DialectTypeScript, nil
	case "tsx":
		return DialectTSX, nil
	default:
		return 0, fmt.Errorf("invalid dialect %q (expected javascript|typescript|tsx)", s)
	}
}

// DialectForPath picks a dialect from the file extension; unknown extensions parse as JavaScript.
func DialectForPath(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return DialectTypeScript
	case ".tsx":
		return DialectTSX
	default:
		return DialectJavaScript
	}
}

// Extensions lists the file extensions the driver picks up when walking directories.
var Extensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"}

// HasSourceExt reports whether path has one of Extensions.
func HasSourceExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Language returns the tree-sitter grammar for the dialect, or nil for an unknown dialect.
func (d Dialect) Language() *sitter.Language {
	switch d {
	case DialectJavaScript:
		return sitter.NewLanguage(tsjavascript.Language())
	case DialectTypeScript:
		return sitter.NewLanguage(tstypescript.LanguageTypescript())
	case DialectTSX:
		return sitter.NewLanguage(tstypescript.LanguageTSX())
	default:
		return nil
	}
}
