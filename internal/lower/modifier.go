package lower

import (
	"fmt"
	"strings"

	"earlyret/internal/diag"
)

// ModifierKind selects how a configured name is applied to an operand.
type ModifierKind uint8

const (
	// ModifierFunction renders `name(x)`.
	ModifierFunction ModifierKind = iota + 1
	// ModifierProperty renders `x.name`.
	ModifierProperty
	// ModifierMethod renders `x.name()`.
	ModifierMethod
)

func (k ModifierKind) String() string {
	switch k {
	case ModifierFunction:
		return "function"
	case ModifierProperty:
		return "property"
	case ModifierMethod:
		return "method"
	default:
		return fmt.Sprintf("ModifierKind(%d)", uint8(k))
	}
}

// ParseModifierKind maps a configuration tag to a kind. Unknown tags are an error,
// never a fallback.
func ParseModifierKind(s string) (ModifierKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "function", "func", "call":
		return ModifierFunction, nil
	case "property", "prop":
		return ModifierProperty, nil
	case "method":
		return ModifierMethod, nil
	default:
		return 0, diag.Errorf(diag.CfgInvalidModifierKind, "unknown modifier kind %q (expected function|property|method)", s)
	}
}

// Modifier is a rendering template for a check or extract operation on an operand.
// Name is an opaque source fragment and is inserted verbatim.
type Modifier struct {
	Kind ModifierKind
	Name string
}

func FunctionCall(name string) Modifier {
	return Modifier{Kind: ModifierFunction, Name: name}
}

func PropertyAccess(name string) Modifier {
	return Modifier{Kind: ModifierProperty, Name: name}
}

func MethodCall(name string) Modifier {
	return Modifier{Kind: ModifierMethod, Name: name}
}

// ParseModifier parses the "kind:value" form used on the command line.
func ParseModifier(s string) (Modifier, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return Modifier{}, diag.Errorf(diag.CfgInvalidValue, "modifier %q must have the form kind:value", s)
	}
	k, err := ParseModifierKind(kind)
	if err != nil {
		return Modifier{}, err
	}
	m := Modifier{Kind: k, Name: strings.TrimSpace(value)}
	if err := m.Validate(); err != nil {
		return Modifier{}, err
	}
	return m, nil
}

// Validate rejects unknown kinds and empty names.
func (m Modifier) Validate() error {
	switch m.Kind {
	case ModifierFunction, ModifierProperty, ModifierMethod:
	default:
		return diag.Errorf(diag.CfgInvalidModifierKind, "unknown modifier kind %d", uint8(m.Kind))
	}
	if strings.TrimSpace(m.Name) == "" {
		return diag.Errorf(diag.CfgInvalidValue, "%s modifier has an empty value", m.Kind)
	}
	return nil
}

// Apply renders the modifier against operand text.
func (m Modifier) Apply(operand string) (string, error) {
	switch m.Kind {
	case ModifierFunction:
		return m.Name + "(" + operand + ")", nil
	case ModifierProperty:
		return operand + "." + m.Name, nil
	case ModifierMethod:
		return operand + "." + m.Name + "()", nil
	default:
		return "", diag.Errorf(diag.CfgInvalidModifierKind, "unknown modifier kind %d", uint8(m.Kind))
	}
}

func (m Modifier) String() string {
	return m.Kind.String() + ":" + m.Name
}

// MarshalText and UnmarshalText use the "kind:value" form, so modifiers can be
// written as plain strings in config files and JSON output.
func (m Modifier) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

func (m *Modifier) UnmarshalText(text []byte) error {
	parsed, err := ParseModifier(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
