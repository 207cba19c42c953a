package lower

import (
	"earlyret/internal/extract"
	"earlyret/internal/source"
	"earlyret/internal/splice"
	"earlyret/internal/syntax"
)

// Options tunes a single Process call.
type Options struct {
	// Dialect selects the grammar; zero means TypeScript.
	Dialect syntax.Dialect
}

func (o Options) dialect() syntax.Dialect {
	if o.Dialect == 0 {
		return syntax.DialectTypeScript
	}
	return o.Dialect
}

// Process lowers every unwrap operator in src using the TypeScript grammar.
func Process(src string, cfg Config) (string, error) {
	return ProcessWith(src, cfg, Options{})
}

// ProcessWith parses src, extracts the operator tokens and rewrites them.
// Source without operators is returned unchanged and no prelude is added.
func ProcessWith(src string, cfg Config, opts Options) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	tokens, err := Tokens(src, opts)
	if err != nil {
		return "", err
	}
	return Rewrite(src, tokens, cfg)
}

// Tokens parses src and returns its rewrite tokens.
func Tokens(src string, opts Options) ([]extract.Token, error) {
	p, err := syntax.NewParser(opts.dialect())
	if err != nil {
		return nil, err
	}
	defer p.Close()

	tree, err := p.Parse(source.FileID(0), []byte(src))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return extract.Extract(tree)
}

// Rewrite applies previously extracted tokens of src. The prelude goes past the
// prologue token, if any.
func Rewrite(src string, tokens []extract.Token, cfg Config) (string, error) {
	if extract.Count(tokens).Sites == 0 {
		return src, nil
	}
	st, err := NewStrategy(cfg)
	if err != nil {
		return "", err
	}
	edits, err := st.Edits(tokens)
	if err != nil {
		return "", err
	}
	prelude, err := st.Prelude()
	if err != nil {
		return "", err
	}
	return splice.Apply(src, edits, splice.Prelude{Text: prelude, Pos: extract.PrologueEnd(tokens)})
}
