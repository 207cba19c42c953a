package splice

import (
	"fmt"
)

// Role orders edits that share a position.
type Role uint8

const (
	// RolePrelude goes before anything else at its position.
	RolePrelude Role = iota + 1
	// RoleClose terminates a wrapped region; narrower regions close first.
	RoleClose
	// RoleOpen starts a wrapped region; wider regions open first.
	RoleOpen
	// roleDelete removes bytes; it runs after every insertion at the same position.
	roleDelete
)

func (r Role) String() string {
	switch r {
	case RolePrelude:
		return "prelude"
	case RoleClose:
		return "close"
	case RoleOpen:
		return "open"
	case roleDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one edit in original-source coordinates.
type Op struct {
	Pos  int    // insertion point or deletion start
	End  int    // deletion end; equals Pos for insertions
	Text string // inserted text
	Role Role
	// Width is the size of the region an open/close pair wraps.
	Width int
	seq   int
}

// IsDelete reports whether the op removes bytes.
func (o Op) IsDelete() bool {
	return o.Role == roleDelete
}

func (o Op) String() string {
	if o.IsDelete() {
		return fmt.Sprintf("delete [%d,%d)", o.Pos, o.End)
	}
	return fmt.Sprintf("insert@%d %s %q", o.Pos, o.Role, o.Text)
}

// Edits accumulates ops; generation order is recorded as the final tie-break.
type Edits struct {
	ops []Op
}

// NewEdits returns an empty edit list with room for n ops.
func NewEdits(n int) *Edits {
	return &Edits{ops: make([]Op, 0, n)}
}

// Insert queues text at pos.
func (e *Edits) Insert(pos int, text string, role Role, width int) {
	e.ops = append(e.ops, Op{Pos: pos, End: pos, Text: text, Role: role, Width: width, seq: len(e.ops)})
}

// Wrap queues a matching open/close pair around [start,end).
func (e *Edits) Wrap(start, end int, open, closing string) {
	width := end - start
	e.Insert(start, open, RoleOpen, width)
	e.Insert(end, closing, RoleClose, width)
}

// Delete queues removal of [start,end). Empty ranges are ignored.
func (e *Edits) Delete(start, end int) {
	if end <= start {
		return
	}
	e.ops = append(e.ops, Op{Pos: start, End: end, Role: roleDelete, seq: len(e.ops)})
}

func (e *Edits) Len() int {
	return len(e.ops)
}

// Ops returns a copy of the queued ops in generation order.
func (e *Edits) Ops() []Op {
	return append([]Op(nil), e.ops...)
}

// less orders ops by position, then role, then nesting width, then generation order.
func less(a, b Op) bool {
	if a.Pos != b.Pos {
		return a.Pos < b.Pos
	}
	if a.Role != b.Role {
		return a.Role < b.Role
	}
	switch a.Role {
	case RoleOpen:
		if a.Width != b.Width {
			return a.Width > b.Width
		}
	case RoleClose:
		if a.Width != b.Width {
			return a.Width < b.Width
		}
	}
	return a.seq < b.seq
}
