// Package earlyret rewrites the `.$` unwrap operator in JavaScript and
// TypeScript into plain try/catch code plus a small runtime prelude.
//
//	out, err := earlyret.Process(src, earlyret.DefaultConfig())
//
// Source without the operator is returned unchanged. Failures are coded
// diagnostics; classify them with errors.Is against the Err* values.
package earlyret

import (
	"earlyret/internal/diag"
	"earlyret/internal/lower"
	"earlyret/internal/syntax"
)

type (
	Config       = lower.Config
	Modifier     = lower.Modifier
	ModifierKind = lower.ModifierKind
	Dialect      = syntax.Dialect
)

const (
	ModifierFunction = lower.ModifierFunction
	ModifierProperty = lower.ModifierProperty
	ModifierMethod   = lower.ModifierMethod
)

const (
	JavaScript = syntax.DialectJavaScript
	TypeScript = syntax.DialectTypeScript
	TSX        = syntax.DialectTSX
)

var (
	ErrParseFailure        = diag.ErrParseFailure
	ErrInvalidModifierKind = diag.ErrInvalidModifierKind
	ErrInvalidConfig       = diag.ErrInvalidConfig
	ErrEncodingFailure     = diag.ErrEncodingFailure
	ErrOverlappingEdits    = diag.ErrOverlappingEdits
)

// Options select the grammar. The zero value parses TypeScript.
type Options struct {
	Dialect Dialect
}

// DefaultConfig checks `x.isOk` and unwraps `x.value`, without mangling.
func DefaultConfig() Config { return lower.DefaultConfig() }

func FunctionCall(name string) Modifier   { return lower.FunctionCall(name) }
func PropertyAccess(name string) Modifier { return lower.PropertyAccess(name) }
func MethodCall(name string) Modifier     { return lower.MethodCall(name) }

// ParseModifier reads the "kind:value" form, e.g. "method:isSuccess".
func ParseModifier(s string) (Modifier, error) { return lower.ParseModifier(s) }

// Process lowers src as TypeScript.
func Process(src string, cfg Config) (string, error) {
	return lower.Process(src, cfg)
}

// ProcessWith lowers src with the grammar chosen in opts.
func ProcessWith(src string, cfg Config, opts Options) (string, error) {
	return lower.ProcessWith(src, cfg, lower.Options{Dialect: opts.Dialect})
}
