package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Format selects how a stream or a ring dump renders events.
type Format uint8

const (
	FormatAuto Format = iota // by the output path extension
	FormatText
	FormatNDJSON
)

// ParseFormat converts a flag value to a Format; "json" means NDJSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatEvent renders one event as a single line, newline included.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

// jsonEvent is the NDJSON line. At is the [start, end) byte range in File.
type jsonEvent struct {
	Time     time.Time         `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	File     string            `json:"file,omitempty"`
	At       *[2]uint32        `json:"at,omitempty"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	je := jsonEvent{
		Time: ev.Time, Seq: ev.Seq, Kind: ev.Kind.String(), Scope: ev.Scope.String(),
		SpanID: ev.SpanID, ParentID: ev.ParentID, GID: ev.GID,
		Name: ev.Name, File: ev.File, Detail: ev.Detail, Extra: ev.Extra,
	}
	if ev.At != nil {
		je.At = &[2]uint32{ev.At.Start, ev.At.End}
	}
	data, err := json.Marshal(je)
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

var kindMarks = [...]string{KindSpanBegin: "→", KindSpanEnd: "←", KindPoint: "•"}

// formatText renders "15:04:05.000000 [file]   → name a.ts@4-9 (detail) {k=v}".
// Events inside a span are indented.
func formatText(ev *Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] ", ev.Time.Format("15:04:05.000000"), ev.Scope)
	if ev.ParentID > 0 {
		b.WriteString("  ")
	}
	if int(ev.Kind) < len(kindMarks) && kindMarks[ev.Kind] != "" {
		b.WriteString(kindMarks[ev.Kind] + " ")
	}
	b.WriteString(ev.Name)
	if ev.File != "" {
		b.WriteString(" " + ev.File)
	}
	if ev.At != nil {
		fmt.Fprintf(&b, "@%d-%d", ev.At.Start, ev.At.End)
	}
	if ev.Detail != "" {
		fmt.Fprintf(&b, " (%s)", ev.Detail)
	}
	if len(ev.Extra) > 0 {
		pairs := make([]string, 0, len(ev.Extra))
		for _, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			pairs = append(pairs, k+"="+ev.Extra[k])
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(pairs, ", "))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
