package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet owns the sources of one run. It is filled before parallel work
// starts; afterwards it is read-only and safe to share.
type FileSet struct {
	files   []File
	baseDir string // относительные пути считаются от неё
}

func NewFileSet() *FileSet {
	return &FileSet{}
}

// NewFileSetWithBase creates a FileSet whose relative paths are computed against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{baseDir: baseDir}
}

// BaseDir returns the base directory, falling back to the working directory.
func (s *FileSet) BaseDir() string {
	if s.baseDir != "" {
		return s.baseDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func (s *FileSet) Len() int {
	return len(s.files)
}

// Add stores content under a fresh FileID, even when path was added before.
// Spans are 32-bit, so larger inputs are a programming error.
func (s *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(s.files))
	if err != nil {
		panic(fmt.Errorf("source: file count overflow: %w", err))
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("source: %s is too large: %w", path, err))
	}
	s.files = append(s.files, File{
		ID:      FileID(n),
		Path:    normalizePath(path),
		Content: content,
		Flags:   flags,
		breaks:  lineBreaks(content),
	})
	return FileID(n)
}

// Load reads path from disk and adds its decoded content.
func (s *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return s.AddDecoded(path, raw, 0)
}

// AddDecoded strips a BOM or transcodes UTF-16 before adding; the flags record what was done.
func (s *FileSet) AddDecoded(path string, raw []byte, flags FileFlags) (FileID, error) {
	content, decoded, err := decodeContent(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return s.Add(path, content, flags|decoded), nil
}

// AddVirtual adds in-memory content such as stdin.
func (s *FileSet) AddVirtual(name string, content []byte) FileID {
	return s.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil when the ID is unknown.
func (s *FileSet) Get(id FileID) *File {
	if int(id) >= len(s.files) {
		return nil
	}
	return &s.files[id]
}

// Resolve converts span into line and column positions; unknown files resolve to 1:1.
func (s *FileSet) Resolve(span Span) (start, end LineCol) {
	f := s.Get(span.File)
	if f == nil {
		return LineCol{Line: 1, Col: 1}, LineCol{Line: 1, Col: 1}
	}
	return f.Position(span.Start), f.Position(span.End)
}
