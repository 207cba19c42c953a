package syntax

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/diag"
)

func TestParseValidSources(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		src     string
	}{
		{name: "javascript", dialect: DialectJavaScript, src: "const a = foo.$;\n"},
		{name: "typescript", dialect: DialectTypeScript, src: "function f(x: Result<number>): number { return x.$; }\n"},
		{name: "tsx", dialect: DialectTSX, src: "const el = <div>{value.$}</div>;\n"},
		{name: "empty", dialect: DialectJavaScript, src: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParser(tt.dialect)
			require.NoError(t, err)
			defer p.Close()

			tree, err := p.Parse(0, []byte(tt.src))
			require.NoError(t, err)
			defer tree.Close()

			assert.Equal(t, "program", tree.Root().Kind())
			assert.Equal(t, tt.src, string(tree.Source()))
		})
	}
}

func TestParseFailureIsFatal(t *testing.T) {
	p, err := NewParser(DialectJavaScript)
	require.NoError(t, err)
	defer p.Close()

	tree, err := p.Parse(3, []byte("function f( {\n  return x.$;\n"))
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.True(t, errors.Is(err, diag.ErrParseFailure))

	var de *diag.Error
	require.True(t, errors.As(err, &de))
	assert.True(t, de.HasSpan)
	assert.Equal(t, uint32(3), uint32(de.Primary.File))
}

func TestTypeScriptOnlySyntaxFailsAsJavaScript(t *testing.T) {
	p, err := NewParser(DialectJavaScript)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Parse(0, []byte("let x: number = y.$;"))
	assert.ErrorIs(t, err, diag.ErrParseFailure)
}

func TestDialects(t *testing.T) {
	assert.Equal(t, DialectTypeScript, DialectForPath("src/a.ts"))
	assert.Equal(t, DialectTypeScript, DialectForPath("src/a.MTS"))
	assert.Equal(t, DialectTSX, DialectForPath("view.tsx"))
	assert.Equal(t, DialectJavaScript, DialectForPath("index.mjs"))
	assert.Equal(t, DialectJavaScript, DialectForPath("README"))

	d, err := ParseDialect("TS")
	require.NoError(t, err)
	assert.Equal(t, DialectTypeScript, d)
	_, err = ParseDialect("coffee")
	assert.Error(t, err)

	assert.True(t, HasSourceExt("a/b.cjs"))
	assert.False(t, HasSourceExt("a/b.json"))
	assert.Nil(t, Dialect(0).Language())
}

func TestFormatExpectedKind(t *testing.T) {
	assert.Equal(t, "'}'", formatExpectedKind("}"))
	assert.Equal(t, "'=>'", formatExpectedKind("=>"))
	assert.Equal(t, "statement block", formatExpectedKind("statement_block"))
	assert.Equal(t, "token", formatExpectedKind(" "))
}
