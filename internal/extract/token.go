package extract

import (
	"fmt"

	"earlyret/internal/source"
)

// Kind discriminates the Token union.
type Kind uint8

const (
	// KindSite is one `.$` occurrence.
	KindSite Kind = iota + 1
	// KindScope is a function body that needs early-return plumbing.
	KindScope
	// KindPrologue covers the leading hashbang and directives; injected code goes after it.
	KindPrologue
)

func (k Kind) String() string {
	switch k {
	case KindSite:
		return "site"
	case KindScope:
		return "scope"
	case KindPrologue:
		return "prologue"
	default:
		return "unknown"
	}
}

// Site is a property access whose property is the trigger identifier.
type Site struct {
	Object   source.Span // operand expression
	Operator source.Span // `.` or `?.`
	Tail     source.Span // the trigger identifier
}

// Scope is the body of the nearest function enclosing at least one Site.
// For block bodies Body lies strictly between the braces; for expression-bodied
// arrows Body is the expression itself.
type Scope struct {
	Body        source.Span
	BodyIsBlock bool
	Node        string // grammar kind of the function node
}

// Token is a rewrite site in tree order. Exactly one of Site/Scope/Prologue is meaningful, selected by Kind.
type Token struct {
	Kind     Kind
	Site     Site
	Scope    Scope
	Prologue source.Span // always starts at byte 0
}

func SiteToken(s Site) Token {
	return Token{Kind: KindSite, Site: s}
}

func ScopeToken(s Scope) Token {
	return Token{Kind: KindScope, Scope: s}
}

func PrologueToken(s source.Span) Token {
	return Token{Kind: KindPrologue, Prologue: s}
}

// PrologueEnd is where injected declarations may go: past the Prologue token, if any.
func PrologueEnd(tokens []Token) int {
	for _, tok := range tokens {
		if tok.Kind == KindPrologue {
			return int(tok.Prologue.End)
		}
	}
	return 0
}

// Span is the text the token covers: operand through trigger for a site, the
// body for a scope.
func (t Token) Span() source.Span {
	switch t.Kind {
	case KindSite:
		return t.Site.Object.Cover(t.Site.Tail)
	case KindScope:
		return t.Scope.Body
	case KindPrologue:
		return t.Prologue
	default:
		return source.Span{}
	}
}

func (t Token) String() string {
	switch t.Kind {
	case KindSite:
		return fmt.Sprintf("site object=%s op=%s tail=%s", t.Site.Object, t.Site.Operator, t.Site.Tail)
	case KindScope:
		shape := "expr"
		if t.Scope.BodyIsBlock {
			shape = "block"
		}
		return fmt.Sprintf("scope %s body=%s (%s)", shape, t.Scope.Body, t.Scope.Node)
	case KindPrologue:
		return fmt.Sprintf("prologue end=%d", t.Prologue.End)
	default:
		return "unknown token"
	}
}

// Stats counts tokens by kind.
type Stats struct {
	Sites  int
	Scopes int
}

func Count(tokens []Token) Stats {
	var st Stats
	for _, tok := range tokens {
		switch tok.Kind {
		case KindSite:
			st.Sites++
		case KindScope:
			st.Scopes++
		}
	}
	return st
}
