package driver

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"earlyret/internal/diag"
	"earlyret/internal/source"
)

// OutputMode selects where lowered text goes.
type OutputMode uint8

const (
	// OutputStdout leaves Result.Output for the caller to print.
	OutputStdout OutputMode = iota
	// OutputInPlace rewrites changed files.
	OutputInPlace
	// OutputDir mirrors every input under Options.OutDir.
	OutputDir
)

func (m OutputMode) String() string {
	switch m {
	case OutputStdout:
		return "stdout"
	case OutputInPlace:
		return "in-place"
	case OutputDir:
		return "dir"
	default:
		return "unknown"
	}
}

// destination computes where res goes; empty means nothing to write.
func destination(res *Result, base string, opts Options) string {
	switch opts.Output {
	case OutputInPlace:
		if !res.Changed {
			return ""
		}
		return res.Path
	case OutputDir:
		rel := source.BaseName(res.Path)
		if base != "" {
			if r, err := source.RelativePath(res.Path, base); err == nil && !filepath.IsAbs(r) {
				rel = r
			}
		}
		return filepath.Join(opts.OutDir, filepath.FromSlash(rel))
	default:
		return ""
	}
}

func writeOne(res *Result, file *source.File, base string, opts Options) {
	dest := destination(res, base, opts)
	if dest == "" {
		return
	}
	sink := opts.sink()
	started := time.Now()
	sink.OnEvent(Event{File: res.Path, Stage: StageWrite, Status: StatusWorking})

	perm := os.FileMode(0o644)
	if info, err := os.Stat(res.Path); err == nil {
		perm = info.Mode().Perm()
	}
	data := []byte(res.Output)
	if file != nil {
		data = source.EncodeContent(data, file.Flags)
	}
	if err := writeAtomic(dest, data, perm); err != nil {
		res.Err = diag.Errorf(diag.IOWriteFailure, "write %s", dest).Wrap(err)
		return
	}
	res.Written = dest
	if opts.Timer != nil {
		opts.Timer.Add("write", res.Path, time.Since(started))
	}
}

// writeAtomic writes through a sibling temp file so readers never see partial output.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+strings.TrimPrefix(filepath.Base(path), ".")+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
