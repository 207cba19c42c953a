package source

import (
	"slices"
	"strings"
)

// FileID indexes a file inside its FileSet.
type FileID uint32

// FileFlags record how the bytes on disk became Content, so write-back can undo it.
type FileFlags uint8

const (
	// FileVirtual: added from memory (stdin, tests), never written back.
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM: a UTF-8 byte order mark was stripped on load.
	FileHadBOM
	// FileDecodedUTF16: transcoded from UTF-16 on load; written back as UTF-8.
	FileDecodedUTF16
)

// File is one loaded source. Content is exactly what the parser and the
// rewriter see; spans index into it.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Flags   FileFlags
	breaks  []uint32 // offsets of '\n'
}

// LineCol is a 1-based position for humans.
type LineCol struct {
	Line uint32
	Col  uint32 // in bytes
}

// LineCount counts lines; text after the last newline is a line of its own.
func (f *File) LineCount() int {
	return len(f.breaks) + 1
}

// Position converts a byte offset into a line and column.
func (f *File) Position(off uint32) LineCol {
	// i переводов строки лежат строго до off
	i, _ := slices.BinarySearch(f.breaks, off)
	lineStart := uint32(0)
	if i > 0 {
		lineStart = f.breaks[i-1] + 1
	}
	return LineCol{Line: uint32(i) + 1, Col: off - lineStart + 1}
}

// Line returns the text of 1-based line n without its terminator, or "" when
// there is no such line. A trailing '\r' is dropped for display.
func (f *File) Line(n int) string {
	if n < 1 || n > f.LineCount() {
		return ""
	}
	start := 0
	if n > 1 {
		start = int(f.breaks[n-2]) + 1
	}
	end := len(f.Content)
	if n <= len(f.breaks) {
		end = int(f.breaks[n-1])
	}
	return strings.TrimSuffix(string(f.Content[start:end]), "\r")
}
