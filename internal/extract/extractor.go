package extract

import (
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"earlyret/internal/source"
	"earlyret/internal/syntax"
)

// Trigger is the reserved property name marking an unwrap-or-early-return.
const Trigger = "$"

const operatorQuery = `
(member_expression
	property: ((property_identifier) @prop
		(#eq? @prop "$"))) @member
`

// functionKinds are the nodes that own a return target.
var functionKinds = map[string]bool{
	"function_declaration":           true,
	"function_expression":            true,
	"function":                       true, // старые версии грамматики
	"generator_function":             true,
	"generator_function_declaration": true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// barrierKinds end the ancestor walk: code under them runs outside any enclosing
// function body (class field initializers) or may not return (static blocks).
var barrierKinds = map[string]bool{
	"field_definition":        true,
	"public_field_definition": true,
	"class_static_block":      true,
}

// Extractor runs the operator query against trees of one language.
// The compiled query may be shared; each Extract call uses its own cursor.
type Extractor struct {
	query     *sitter.Query
	memberIdx uint32
	propIdx   uint32
}

// NewExtractor compiles the operator query for lang.
func NewExtractor(lang *sitter.Language) (*Extractor, error) {
	if lang == nil {
		return nil, fmt.Errorf("extract: nil language")
	}
	q, qerr := sitter.NewQuery(lang, operatorQuery)
	if qerr != nil {
		return nil, fmt.Errorf("extract: compile operator query: %v", qerr)
	}

	e := &Extractor{query: q}
	var foundMember, foundProp bool
	for i, name := range q.CaptureNames() {
		switch name {
		case "member":
			e.memberIdx, foundMember = uint32(i), true
		case "prop":
			e.propIdx, foundProp = uint32(i), true
		}
	}
	if !foundMember || !foundProp {
		q.Close()
		return nil, fmt.Errorf("extract: operator query lacks captures")
	}
	return e, nil
}

// Close releases the compiled query.
func (e *Extractor) Close() {
	if e == nil || e.query == nil {
		return
	}
	e.query.Close()
	e.query = nil
}

// Extract returns the rewrite tokens of tree: one Site per occurrence and one
// Scope per distinct enclosing function, preceded by a Prologue token when the
// program starts with a hashbang or directives. It only reads the tree.
func (e *Extractor) Extract(tree *syntax.Tree) ([]Token, error) {
	if e == nil || e.query == nil {
		return nil, fmt.Errorf("extract: closed extractor")
	}
	src := tree.Source()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	tokens := make([]Token, 0)
	if end := tree.PrologueEnd(); end > 0 {
		end32, err := safecast.Conv[uint32](end)
		if err != nil {
			return nil, fmt.Errorf("extract: prologue end: %w", err)
		}
		tokens = append(tokens, PrologueToken(source.Span{File: tree.File(), End: end32}))
	}
	// ключ: диапазон узла функции, а не его handle
	visited := make(map[source.Span]bool)

	matches := cursor.Matches(e.query, tree.Root(), src)
	for m := matches.Next(); m != nil; m = matches.Next() {
		var member, prop *sitter.Node
		for i := range m.Captures {
			c := &m.Captures[i]
			switch c.Index {
			case e.memberIdx:
				member = &c.Node
			case e.propIdx:
				prop = &c.Node
			}
		}
		if member == nil || prop == nil || prop.Utf8Text(src) != Trigger {
			continue
		}

		site, err := siteOf(tree, member, prop)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, SiteToken(site))

		fn := enclosingFunction(member)
		if fn == nil {
			continue
		}
		key, err := tree.Span(fn)
		if err != nil {
			return nil, err
		}
		if visited[key] {
			continue
		}
		visited[key] = true

		scope, ok, err := scopeOf(tree, fn)
		if err != nil {
			return nil, err
		}
		if ok {
			tokens = append(tokens, ScopeToken(scope))
		}
	}
	return tokens, nil
}

// Extract is a one-shot helper compiling the query for the tree's language.
func Extract(tree *syntax.Tree) ([]Token, error) {
	e, err := NewExtractor(tree.Language())
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.Extract(tree)
}

func siteOf(tree *syntax.Tree, member, prop *sitter.Node) (Site, error) {
	object := member.ChildByFieldName("object")
	if object == nil {
		return Site{}, fmt.Errorf("extract: member expression without object at byte %d", member.StartByte())
	}
	objSpan, err := tree.Span(object)
	if err != nil {
		return Site{}, err
	}
	tailSpan, err := tree.Span(prop)
	if err != nil {
		return Site{}, err
	}

	// коннектор: `.` или optional_chain `?.` прямо перед свойством
	opSpan := source.Span{File: objSpan.File, Start: objSpan.End, End: tailSpan.Start}
	if prev := prop.PrevSibling(); prev != nil && prev.StartByte() >= object.EndByte() {
		if opSpan, err = tree.Span(prev); err != nil {
			return Site{}, err
		}
	}
	return Site{Object: objSpan, Operator: opSpan, Tail: tailSpan}, nil
}

// enclosingFunction walks ancestors up to the nearest function node.
func enclosingFunction(n *sitter.Node) *sitter.Node {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		kind := cur.Kind()
		if barrierKinds[kind] {
			return nil
		}
		if functionKinds[kind] {
			return cur
		}
	}
	return nil
}

func scopeOf(tree *syntax.Tree, fn *sitter.Node) (Scope, bool, error) {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return Scope{}, false, nil
	}

	if body.Kind() != "statement_block" {
		span, err := tree.Span(body)
		if err != nil {
			return Scope{}, false, err
		}
		return Scope{Body: span, BodyIsBlock: false, Node: fn.Kind()}, true, nil
	}

	count := body.ChildCount()
	if count < 2 {
		return Scope{}, false, fmt.Errorf("extract: statement block without delimiters at byte %d", body.StartByte())
	}
	open, err := tree.Span(body.Child(0))
	if err != nil {
		return Scope{}, false, err
	}
	closing, err := tree.Span(body.Child(count - 1))
	if err != nil {
		return Scope{}, false, err
	}
	return Scope{
		Body:        source.Span{File: open.File, Start: open.End, End: closing.Start},
		BodyIsBlock: true,
		Node:        fn.Kind(),
	}, true, nil
}
