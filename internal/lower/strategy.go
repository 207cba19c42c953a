package lower

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"earlyret/internal/extract"
	"earlyret/internal/splice"
)

const (
	// MangleAlphabet is the 62-symbol alphabet of the mangle suffix.
	MangleAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// MangleLen is the suffix length.
	MangleLen = 8
)

// Strategy renders tokens into edits for one call. A Strategy holds the mangle
// suffix of that call and must not be reused for another source.
type Strategy struct {
	cfg    Config
	suffix string
}

// NewStrategy validates cfg and draws the mangle suffix when requested.
func NewStrategy(cfg Config) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Strategy{cfg: cfg}
	if cfg.Mangle {
		suffix, err := gonanoid.Generate(MangleAlphabet, MangleLen)
		if err != nil {
			return nil, fmt.Errorf("lower: mangle suffix: %w", err)
		}
		s.suffix = suffix
	}
	return s, nil
}

// Suffix is empty without mangling.
func (s *Strategy) Suffix() string {
	return s.suffix
}

func (s *Strategy) mangled(base string) string {
	if s.suffix == "" {
		return base
	}
	return base + "_" + s.suffix
}

// SymbolName is the identifier of the sentinel symbol.
func (s *Strategy) SymbolName() string {
	return s.mangled(SymbolBaseName)
}

// UnwrapName is the identifier of the shared unwrap function.
func (s *Strategy) UnwrapName() string {
	return s.mangled(UnwrapBaseName)
}

// Prelude renders the support declarations, terminated by a newline.
func (s *Strategy) Prelude() (string, error) {
	check, err := s.cfg.ValueCheck.Apply("x")
	if err != nil {
		return "", fmt.Errorf("value check: %w", err)
	}
	value, err := s.cfg.Unwrap.Apply("x")
	if err != nil {
		return "", fmt.Errorf("unwrap: %w", err)
	}
	sym := s.SymbolName()

	var b strings.Builder
	fmt.Fprintf(&b, "const %s = Symbol();\n", sym)
	fmt.Fprintf(&b, "const %s = (x) => { if (%s) return %s; else throw {[%s]: x}; };\n",
		s.UnwrapName(), check, value, sym)
	return b.String(), nil
}

func (s *Strategy) catchClause() string {
	sym := s.SymbolName()
	return "catch (e) { if (" + sym + " in e) return e[" + sym + "]; throw e; }"
}

// Lower appends the edits of one token.
func (s *Strategy) Lower(edits *splice.Edits, tok extract.Token) error {
	switch tok.Kind {
	case extract.KindSite:
		site := tok.Site
		edits.Wrap(int(site.Object.Start), int(site.Object.End), s.UnwrapName()+"(", ")")
		edits.Delete(int(site.Operator.Start), int(site.Operator.End))
		edits.Delete(int(site.Tail.Start), int(site.Tail.End))
	case extract.KindScope:
		body := tok.Scope.Body
		if tok.Scope.BodyIsBlock {
			edits.Wrap(int(body.Start), int(body.End), " try {", "} "+s.catchClause()+" ")
		} else {
			edits.Wrap(int(body.Start), int(body.End), "{ try { return ", " } "+s.catchClause()+" }")
		}
	case extract.KindPrologue:
		// только якорь для prelude, сам текст не трогаем
	default:
		return fmt.Errorf("lower: unknown token kind %d", tok.Kind)
	}
	return nil
}

// Edits renders every token. Each site yields a wrap and two deletions, each scope a wrap.
func (s *Strategy) Edits(tokens []extract.Token) (*splice.Edits, error) {
	edits := splice.NewEdits(len(tokens) * 4)
	for _, tok := range tokens {
		if err := s.Lower(edits, tok); err != nil {
			return nil, err
		}
	}
	return edits, nil
}
