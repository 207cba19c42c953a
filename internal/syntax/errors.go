package syntax

import (
	"fmt"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"earlyret/internal/diag"
	"earlyret/internal/source"
)

func syntaxError(file source.FileID, root *sitter.Node) *diag.Error {
	missing := findFirst(root, (*sitter.Node).IsMissing)
	errorNode := missing
	if errorNode == nil {
		errorNode = findFirst(root, (*sitter.Node).IsError)
	}
	if errorNode == nil {
		errorNode = root
	}

	message := "syntax error"
	if missing != nil {
		message = fmt.Sprintf("syntax error: expected %s", formatExpectedKind(missing.Kind()))
	}
	span, err := SpanOf(file, errorNode)
	if err != nil {
		return diag.Errorf(diag.SynParseFailure, "%s", message)
	}
	return diag.ErrorAt(diag.SynParseFailure, span, "%s", message)
}

// findFirst returns the earliest node (by start byte) satisfying pred.
func findFirst(root *sitter.Node, pred func(*sitter.Node) bool) *sitter.Node {
	var best *sitter.Node
	walkNodes(root, func(node *sitter.Node) {
		if !pred(node) {
			return
		}
		if best == nil || node.StartByte() < best.StartByte() {
			best = node
		}
	})
	return best
}

func walkNodes(root *sitter.Node, visit func(node *sitter.Node)) {
	if root == nil {
		return
	}
	visit(root)
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		walkNodes(child, visit)
	}
}

func formatExpectedKind(kind string) string {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return "token"
	}
	isSymbol := true
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			isSymbol = false
			break
		}
	}
	if len(trimmed) == 1 || isSymbol {
		return fmt.Sprintf("'%s'", trimmed)
	}
	return strings.ReplaceAll(trimmed, "_", " ")
}
