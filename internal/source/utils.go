package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeContent strips a UTF-8 BOM and transcodes UTF-16 (with BOM) into UTF-8.
// Content without a BOM is returned untouched: line endings and invalid bytes are preserved,
// the rewriter works on the exact bytes the author wrote.
func decodeContent(content []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		flags |= FileHadBOM
	case bytes.HasPrefix(content, bomUTF16LE), bytes.HasPrefix(content, bomUTF16BE):
		flags |= FileDecodedUTF16
	default:
		return content, 0, nil
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), content)
	if err != nil {
		return nil, 0, fmt.Errorf("decode source: %w", err)
	}
	return out, flags, nil
}

// EncodeContent reverses decodeContent for write-back: a stripped UTF-8 BOM is restored.
// Files transcoded from UTF-16 are written back as UTF-8.
func EncodeContent(content []byte, flags FileFlags) []byte {
	if flags&FileHadBOM == 0 {
		return content
	}
	out := make([]byte, 0, len(bomUTF8)+len(content))
	out = append(out, bomUTF8...)
	return append(out, content...)
}

func lineBreaks(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, c := range content {
		if c == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

func normalizePath(p string) string {
	// единый вид в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

// BaseName returns the last path element.
func BaseName(p string) string {
	return filepath.Base(p)
}

// AbsolutePath resolves p to a normalized absolute path.
func AbsolutePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return normalizePath(abs), nil
}

// RelativePath returns p relative to baseDir. Paths escaping baseDir fall back to absolute form.
func RelativePath(p, baseDir string) (string, error) {
	absPath, err := AbsolutePath(p)
	if err != nil {
		return "", err
	}
	absBase, err := AbsolutePath(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", err
	}
	rel = normalizePath(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return absPath, nil
	}
	return rel, nil
}
