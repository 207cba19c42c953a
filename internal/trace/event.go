package trace

import (
	"time"

	"earlyret/internal/source"
)

// Kind tells span boundaries from instant points.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point"}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers a whole CLI command.
	ScopeDriver Scope = iota + 1
	// ScopePass covers parse, extract and splice.
	ScopePass
	// ScopeFile covers one file from load to write-back, and its failure.
	ScopeFile
	// ScopeToken marks each extracted site, scope or prologue.
	ScopeToken
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopePass: "pass", ScopeFile: "file", ScopeToken: "token"}

func (s Scope) String() string {
	if s > 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64       // 0 for roots
	GID      uint64       // goroutine that emitted the event
	Name     string       // e.g. "parse", "site"
	File     string       // path of the file being lowered; empty for driver-wide events
	At       *source.Span // bytes of the site, scope or failure, when tied to text
	Detail   string
	Extra    map[string]string
}
