package trace

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"earlyret/internal/source"
)

var seq, spanIDs atomic.Uint64

// goroutineID reads the id from the "goroutine N [state]:" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	var gid uint64
	if _, err := fmt.Sscanf(string(buf[:runtime.Stack(buf[:], false)]), "goroutine %d", &gid); err != nil {
		return 0
	}
	return gid
}

// stamp assigns the sequence number, and the time and goroutine when unset,
// then hands ev to t.
func stamp(t Tracer, ev Event) {
	ev.Seq = seq.Add(1)
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if ev.GID == 0 {
		ev.GID = goroutineID()
	}
	t.Emit(&ev)
}

type ctxKey struct{}

// binding is what a context carries for tracing: the tracer, the innermost open
// span and the file being lowered.
type binding struct {
	tracer Tracer
	span   uint64
	file   string
}

func bindingOf(ctx context.Context) binding {
	if ctx != nil {
		if b, ok := ctx.Value(ctxKey{}).(binding); ok {
			return b
		}
	}
	return binding{tracer: Nop}
}

func (b binding) into(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, b)
}

func (b binding) records(scope Scope) bool {
	return b.tracer != nil && b.tracer.Enabled() && b.tracer.Level().ShouldEmit(scope)
}

// FromContext returns the Tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return bindingOf(ctx).tracer
}

// WithTracer attaches t to ctx; open span and file are kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	b := bindingOf(ctx)
	b.tracer = t
	return b.into(ctx)
}

// WithFile tags every event emitted under ctx with path.
func WithFile(ctx context.Context, path string) context.Context {
	b := bindingOf(ctx)
	b.file = path
	return b.into(ctx)
}

// FileOf returns the path bound by WithFile, or "".
func FileOf(ctx context.Context) string {
	return bindingOf(ctx).file
}

// Span is an open begin/end pair. A span whose scope the tracer does not
// record is detached: it still measures time but emits nothing.
type Span struct {
	tracer  Tracer
	head    Event // begin event; End reuses its identity fields
	started time.Time
	extra   map[string]string
}

// StartSpan opens a span under the span carried by ctx and returns a context
// carrying the new one. The span inherits the file bound to ctx.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	b := bindingOf(ctx)
	s := &Span{started: time.Now()}
	if !b.records(scope) {
		return ctx, s
	}
	s.tracer = b.tracer
	s.head = Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   spanIDs.Add(1),
		ParentID: b.span,
		GID:      goroutineID(),
		Name:     name,
		File:     b.file,
	}
	stamp(s.tracer, s.head)
	b.span = s.head.SpanID
	return b.into(ctx), s
}

// StartFileSpan binds path to ctx and opens the per-file span under it.
func StartFileSpan(ctx context.Context, path string) (context.Context, *Span) {
	return StartSpan(WithFile(ctx, path), ScopeFile, "file")
}

// End emits the end event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	dur := time.Since(s.started)
	if s.tracer == nil {
		return dur
	}
	ev := s.head
	ev.Time = time.Time{}
	ev.Kind = KindSpanEnd
	ev.Detail = detail
	ev.Extra = s.extra
	stamp(s.tracer, ev)
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID is 0 for detached spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.head.SpanID
}

// Mark emits an instant event under the span and file carried by ctx.
// at locates it in the file's text and may be nil.
func Mark(ctx context.Context, scope Scope, name string, at *source.Span, detail string) {
	b := bindingOf(ctx)
	if !b.records(scope) {
		return
	}
	stamp(b.tracer, Event{
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: b.span,
		Name:     name,
		File:     b.file,
		At:       at,
		Detail:   detail,
	})
}
