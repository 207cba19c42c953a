package splice

import (
	"sort"
	"strings"
	"unicode/utf8"

	"earlyret/internal/diag"
)

// Prelude is text injected once at Pos, which must not split a token of the source.
type Prelude struct {
	Text string
	Pos  int
}

// needsBreak reports whether Pos is mid-line, so the prelude must start on a fresh one.
func (p Prelude) needsBreak(src string) bool {
	return p.Pos > 0 && p.Pos <= len(src) && src[p.Pos-1] != '\n'
}

// Apply produces src with every op applied as if all of them were computed against
// the original text simultaneously. When at least one op exists the prelude is
// injected exactly once at its position. Without ops src is returned as is.
func Apply(src string, edits *Edits, prelude Prelude) (string, error) {
	if edits == nil || edits.Len() == 0 {
		return src, nil
	}

	ops := edits.Ops()
	if prelude.Text != "" {
		text := prelude.Text
		if prelude.needsBreak(src) {
			text = "\n" + text
		}
		ops = append(ops, Op{Pos: prelude.Pos, End: prelude.Pos, Text: text, Role: RolePrelude, seq: -1})
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return less(ops[i], ops[j])
	})

	grow := len(src)
	for _, op := range ops {
		if op.IsDelete() {
			grow -= op.End - op.Pos
		} else {
			grow += len(op.Text)
		}
	}

	var b strings.Builder
	b.Grow(max(grow, 0))

	// один проход слева направо, координаты всегда исходные
	cursor := 0
	for _, op := range ops {
		if op.Pos < 0 || op.End < op.Pos || op.End > len(src) {
			return "", diag.Errorf(diag.EncOverlappingEdits, "%s is outside the source (%d bytes)", op, len(src))
		}
		if op.Pos < cursor {
			return "", diag.Errorf(diag.EncOverlappingEdits, "%s overlaps text consumed up to byte %d", op, cursor)
		}
		b.WriteString(src[cursor:op.Pos])
		cursor = op.Pos
		if op.IsDelete() {
			cursor = op.End
			continue
		}
		b.WriteString(op.Text)
	}
	b.WriteString(src[cursor:])

	out := b.String()
	if !utf8.ValidString(out) {
		return "", diag.Errorf(diag.EncInvalidUTF8, "rewritten text is not valid UTF-8")
	}
	return out, nil
}
