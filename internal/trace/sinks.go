package trace

import (
	"io"
	"os"
	"slices"
	"sync"
)

// StreamTracer writes every event as soon as it is emitted.
type StreamTracer struct {
	leveled
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer // nil for writers we do not own
	format Format
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{leveled: leveled{level}, w: w, format: format}
	if c, ok := w.(io.Closer); ok && !isStdStream(w) {
		t.closer = c
	}
	return t
}

func isStdStream(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (f == os.Stdout || f == os.Stderr)
}

// Emit writes ev. Write errors are dropped: a broken trace sink must not fail lowering.
func (t *StreamTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	line := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.w.Write(line) //nolint:errcheck
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes a writer opened for the trace; stdout and stderr stay open.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

// RingTracer keeps the most recent events in memory. After a failed run the
// CLI dumps the ones belonging to the failed files.
type RingTracer struct {
	leveled
	mu   sync.Mutex
	buf  []Event
	next int // oldest slot once buf is full
}

func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{leveled: leveled{level}, buf: make([]Event, 0, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) < cap(t.buf) {
		t.buf = append(t.buf, *ev)
		return
	}
	t.buf[t.next] = *ev
	t.next = (t.next + 1) % len(t.buf)
}

// Snapshot returns a copy of the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Concat(t.buf[t.next:], t.buf[:t.next])
}

// Dump writes the stored events oldest first. When files are given, events of
// other files are skipped; driver-wide events are always written.
func (t *RingTracer) Dump(w io.Writer, format Format, files ...string) error {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f] = true
	}
	for _, ev := range t.Snapshot() {
		if len(keep) > 0 && ev.File != "" && !keep[ev.File] {
			continue
		}
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
