package syntax

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PrologueEnd returns the byte offset just past the leading hashbang line and
// directive prologue of the program, or 0 when it has neither. A directive is
// a top-level expression statement made of a single string literal and
// nothing else; comments between them are skipped.
func (t *Tree) PrologueEnd() uint {
	root := t.Root()
	if root == nil {
		return 0
	}
	var end uint
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil {
			break
		}
		switch child.Kind() {
		case "comment":
			continue
		case "hash_bang_line":
			end = child.EndByte()
			// перевод строки остаётся за hashbang
			if end < uint(len(t.src)) && t.src[end] == '\n' {
				end++
			}
			continue
		case "expression_statement":
			if isDirective(child) {
				end = child.EndByte()
				continue
			}
		}
		break
	}
	return end
}

func isDirective(stmt *sitter.Node) bool {
	var lit *sitter.Node
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		if lit != nil {
			return false
		}
		lit = child
	}
	return lit != nil && lit.Kind() == "string"
}
