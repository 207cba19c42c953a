package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/diag"
)

func TestModifierApply(t *testing.T) {
	tests := []struct {
		m    Modifier
		want string
	}{
		{FunctionCall("isOk"), "isOk(x)"},
		{PropertyAccess("ok"), "x.ok"},
		{MethodCall("get"), "x.get()"},
	}
	for _, tt := range tests {
		got, err := tt.m.Apply("x")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Modifier{Name: "x"}.Apply("x")
	assert.ErrorIs(t, err, diag.ErrInvalidModifierKind)
}

func TestParseModifier(t *testing.T) {
	m, err := ParseModifier("method:isOk")
	require.NoError(t, err)
	assert.Equal(t, MethodCall("isOk"), m)
	assert.Equal(t, "method:isOk", m.String())

	m, err = ParseModifier("Function: Result.isOk")
	require.NoError(t, err)
	assert.Equal(t, FunctionCall("Result.isOk"), m)

	_, err = ParseModifier("field:isOk")
	assert.ErrorIs(t, err, diag.ErrInvalidModifierKind)

	_, err = ParseModifier("isOk")
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = ParseModifier("property:")
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func TestModifierText(t *testing.T) {
	var m Modifier
	require.NoError(t, m.UnmarshalText([]byte("property:value")))
	assert.Equal(t, PropertyAccess("value"), m)

	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "property:value", string(text))

	_, err = Modifier{}.MarshalText()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.ValueCheck.Name = " "
	assert.ErrorIs(t, cfg.Validate(), diag.ErrInvalidConfig)
}

func TestStrategyNames(t *testing.T) {
	st, err := NewStrategy(DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, st.Suffix())
	assert.Equal(t, "EARLY_RETURN", st.SymbolName())
	assert.Equal(t, "__unwrap", st.UnwrapName())

	prelude, err := st.Prelude()
	require.NoError(t, err)
	assert.Equal(t, defaultPrelude, prelude)

	cfg := DefaultConfig()
	cfg.Mangle = true
	st, err = NewStrategy(cfg)
	require.NoError(t, err)
	require.Len(t, st.Suffix(), MangleLen)
	for _, r := range st.Suffix() {
		assert.Contains(t, MangleAlphabet, string(r))
	}
	assert.Equal(t, "EARLY_RETURN_"+st.Suffix(), st.SymbolName())
	assert.Equal(t, "__unwrap_"+st.Suffix(), st.UnwrapName())
}
