package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Tracer receives trace events. Implementations must be goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	// Flush ensures all buffered events are written.
	Flush() error
	// Close flushes and releases resources.
	Close() error
	Level() Level
	// Enabled reports Level() > LevelOff.
	Enabled() bool
}

// leveled supplies Level and Enabled to the concrete tracers.
type leveled struct{ level Level }

func (l leveled) Level() Level  { return l.level }
func (l leveled) Enabled() bool { return l.level > LevelOff }

type nopTracer struct{ leveled }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop is used when tracing is disabled.
var Nop Tracer = nopTracer{}

// tee fans events out; its level is the most verbose of its members.
type tee []Tracer

func (t tee) Emit(ev *Event) {
	for _, tr := range t {
		tr.Emit(ev)
	}
}

func (t tee) Flush() error { return t.each(Tracer.Flush) }
func (t tee) Close() error { return t.each(Tracer.Close) }

// each calls fn on every member and joins the failures.
func (t tee) each(fn func(Tracer) error) error {
	errs := make([]error, len(t))
	for i, tr := range t {
		errs[i] = fn(tr)
	}
	return errors.Join(errs...)
}

func (t tee) Level() Level {
	var l Level
	for _, tr := range t {
		l = max(l, tr.Level())
	}
	return l
}

func (t tee) Enabled() bool { return t.Level() > LevelOff }

// StorageMode is where events go: written out as they happen, kept in memory
// for a dump after a failed run, or both.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1
	ModeRing
	ModeBoth
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m StorageMode) String() string {
	if m > 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a flag value to a StorageMode, ignoring case.
func ParseMode(s string) (StorageMode, error) {
	i := slices.Index(modeNames[:], strings.ToLower(s))
	if i <= 0 {
		return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: %s)", s, strings.Join(modeNames[1:], "|"))
	}
	return StorageMode(i), nil
}

// Config describes the tracer of one CLI run.
type Config struct {
	Level      Level
	Mode       StorageMode // zero means stream
	Format     Format      // FormatAuto picks by OutputPath extension
	Output     io.Writer   // takes precedence over OutputPath
	OutputPath string      // "-" or empty means stderr
	RingSize   int         // zero means defaultRingSize
}

const defaultRingSize = 4096

// normalize fills defaults. An output path without a level traces phases; the
// error level only keeps a ring, since it prints nothing unless a file fails.
func (cfg Config) normalize() Config {
	if cfg.Level == LevelOff && cfg.OutputPath != "" {
		cfg.Level = LevelPhase
	}
	if cfg.Mode == 0 {
		cfg.Mode = ModeStream
	}
	if cfg.Level == LevelError && cfg.Mode == ModeStream {
		cfg.Mode = ModeRing
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = defaultRingSize
	}
	if cfg.Format == FormatAuto {
		cfg.Format = FormatText
		if ext := filepath.Ext(cfg.OutputPath); ext == ".ndjson" || ext == ".jsonl" {
			cfg.Format = FormatNDJSON
		}
	}
	return cfg
}

// New builds the tracer for cfg; Nop when the resulting level is off.
func New(cfg Config) (Tracer, error) {
	cfg = cfg.normalize()
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	var out tee
	if cfg.Mode == ModeStream || cfg.Mode == ModeBoth {
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, NewStreamTracer(w, cfg.Level, cfg.Format))
	}
	if cfg.Mode == ModeRing || cfg.Mode == ModeBoth {
		out = append(out, NewRingTracer(cfg.RingSize, cfg.Level))
	}
	switch len(out) {
	case 0:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	case 1:
		return out[0], nil
	}
	return out, nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// Ring returns the ring buffer inside t, if any.
func Ring(t Tracer) *RingTracer {
	switch tr := t.(type) {
	case *RingTracer:
		return tr
	case tee:
		for _, inner := range tr {
			if r := Ring(inner); r != nil {
				return r
			}
		}
	}
	return nil
}
