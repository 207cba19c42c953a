package syntax

import (
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"earlyret/internal/diag"
	"earlyret/internal/source"
)

// Parser wraps a tree-sitter parser configured for one dialect.
// A Parser is not safe for concurrent use; the driver keeps one per worker.
type Parser struct {
	parser  *sitter.Parser
	lang    *sitter.Language
	dialect Dialect
}

// NewParser constructs a parser with the dialect's grammar loaded.
func NewParser(d Dialect) (*Parser, error) {
	lang := d.Language()
	if lang == nil {
		return nil, fmt.Errorf("syntax: %s grammar not available", d)
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("syntax: %w", err)
	}
	return &Parser{parser: p, lang: lang, dialect: d}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
	p.parser = nil
}

func (p *Parser) Dialect() Dialect {
	return p.dialect
}

// Parse parses src of file. Any syntax error is fatal: tree-sitter recovers from
// errors, but a partially recovered tree is never handed to the rewriter.
func (p *Parser) Parse(file source.FileID, src []byte) (*Tree, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("syntax: nil parser")
	}

	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, diag.Errorf(diag.SynParseFailure, "parser returned no tree")
	}
	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, diag.Errorf(diag.SynParseFailure, "unexpected empty root node")
	}
	if root.HasError() {
		err := syntaxError(file, root)
		tree.Close()
		return nil, err
	}
	return &Tree{tree: tree, lang: p.lang, src: src, file: file}, nil
}

// Tree is a parsed source together with the bytes it was parsed from.
type Tree struct {
	tree *sitter.Tree
	lang *sitter.Language
	src  []byte
	file source.FileID
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Source() []byte {
	return t.src
}

func (t *Tree) Language() *sitter.Language {
	return t.lang
}

func (t *Tree) File() source.FileID {
	return t.file
}

// Span converts a node's byte range into a source span of this tree's file.
func (t *Tree) Span(n *sitter.Node) (source.Span, error) {
	return SpanOf(t.file, n)
}

// Close releases the underlying tree.
func (t *Tree) Close() {
	if t == nil || t.tree == nil {
		return
	}
	t.tree.Close()
	t.tree = nil
}

// SpanOf converts a node's byte range into a source span.
func SpanOf(file source.FileID, n *sitter.Node) (source.Span, error) {
	if n == nil {
		return source.Span{}, fmt.Errorf("syntax: nil node")
	}
	start, err := safecast.Conv[uint32](n.StartByte())
	if err != nil {
		return source.Span{}, fmt.Errorf("syntax: node start: %w", err)
	}
	end, err := safecast.Conv[uint32](n.EndByte())
	if err != nil {
		return source.Span{}, fmt.Errorf("syntax: node end: %w", err)
	}
	return source.Span{File: file, Start: start, End: end}, nil
}
