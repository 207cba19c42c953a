package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"earlyret/internal/extract"
	"earlyret/internal/source"
)

// TokenOutput is one extracted token in JSON form.
type TokenOutput struct {
	Kind     string        `json:"kind"`
	Object   *LocationJSON `json:"object,omitempty"`
	Operator *LocationJSON `json:"operator,omitempty"`
	Tail     *LocationJSON `json:"tail,omitempty"`
	Body     *LocationJSON `json:"body,omitempty"`
	Block    bool          `json:"block,omitempty"`
	Node     string        `json:"node,omitempty"`
	Prologue *LocationJSON `json:"prologue,omitempty"`
	Text     string        `json:"text,omitempty"`
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []extract.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		label := tok.Kind.String()
		if tok.Kind == extract.KindScope {
			label = "scope/expr"
			if tok.Scope.BodyIsBlock {
				label = "scope/block"
			}
		}
		start, end := fs.Resolve(tok.Span())
		if _, err := fmt.Fprintf(w, "%3d: %-12s %d:%d-%d:%d", i+1, label, start.Line, start.Col, end.Line, end.Col); err != nil {
			return err
		}

		var err error
		switch tok.Kind {
		case extract.KindSite:
			_, err = fmt.Fprintf(w, " %q\n", excerpt(fs, tok.Site.Object, 40))
		case extract.KindScope:
			_, err = fmt.Fprintf(w, " (%s)\n", tok.Scope.Node)
		default:
			_, err = fmt.Fprintln(w)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []extract.Token, fs *source.FileSet) error {
	output := make([]TokenOutput, 0, len(tokens))
	loc := locator{fs: fs, mode: PathModeAuto, positions: true}.ptr
	for _, tok := range tokens {
		out := TokenOutput{Kind: tok.Kind.String()}
		switch tok.Kind {
		case extract.KindSite:
			out.Object = loc(tok.Site.Object)
			out.Operator = loc(tok.Site.Operator)
			out.Tail = loc(tok.Site.Tail)
			out.Text = excerpt(fs, tok.Site.Object, 0)
		case extract.KindScope:
			out.Body = loc(tok.Scope.Body)
			out.Block = tok.Scope.BodyIsBlock
			out.Node = tok.Scope.Node
		case extract.KindPrologue:
			out.Prologue = loc(tok.Prologue)
		}
		output = append(output, out)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// excerpt returns the span text, cut to limit runes when limit > 0.
func excerpt(fs *source.FileSet, s source.Span, limit int) string {
	f := fs.Get(s.File)
	if f == nil {
		return ""
	}
	text := []rune(s.Text(f.Content))
	if limit > 0 && len(text) > limit {
		return string(text[:limit-1]) + "…"
	}
	return string(text)
}
