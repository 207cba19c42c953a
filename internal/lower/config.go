package lower

import (
	"fmt"
)

// Default names of the runtime support identifiers.
const (
	SymbolBaseName = "EARLY_RETURN"
	UnwrapBaseName = "__unwrap"
)

// Config is the immutable per-call lowering configuration.
type Config struct {
	// ValueCheck decides whether the operand holds a success value.
	ValueCheck Modifier
	// Unwrap extracts the success value from the operand.
	Unwrap Modifier
	// Mangle appends a random suffix to the support identifiers.
	Mangle bool
}

// DefaultConfig matches result objects shaped like {isOk, value}.
func DefaultConfig() Config {
	return Config{
		ValueCheck: PropertyAccess("isOk"),
		Unwrap:     PropertyAccess("value"),
	}
}

// Validate checks both modifiers.
func (c Config) Validate() error {
	if err := c.ValueCheck.Validate(); err != nil {
		return fmt.Errorf("value check: %w", err)
	}
	if err := c.Unwrap.Validate(); err != nil {
		return fmt.Errorf("unwrap: %w", err)
	}
	return nil
}
