package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/extract"
	"earlyret/internal/source"
	"earlyret/internal/syntax"
)

func sampleTokens(file source.FileID) []extract.Token {
	return []extract.Token{
		extract.PrologueToken(source.Span{File: file, End: 14}),
		extract.SiteToken(extract.Site{
			Object:   source.Span{File: file, Start: 23, End: 24},
			Operator: source.Span{File: file, Start: 24, End: 25},
			Tail:     source.Span{File: file, Start: 25, End: 26},
		}),
		extract.ScopeToken(extract.Scope{
			Body:        source.Span{File: file, Start: 15, End: 28},
			BodyIsBlock: true,
			Node:        "function_declaration",
		}),
	}
}

func TestKeyDependsOnDialectAndSource(t *testing.T) {
	src := []byte("x.$")
	assert.Equal(t, Key(syntax.DialectTypeScript, src), Key(syntax.DialectTypeScript, src))
	assert.NotEqual(t, Key(syntax.DialectTypeScript, src), Key(syntax.DialectJavaScript, src))
	assert.NotEqual(t, Key(syntax.DialectTypeScript, src), Key(syntax.DialectTypeScript, []byte("y.$")))
	assert.Len(t, Key(syntax.DialectTSX, nil).String(), 64)
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Key(syntax.DialectTypeScript, []byte("function f(x) { return x.$; }"))
	require.NoError(t, c.Put(key, syntax.DialectTypeScript, sampleTokens(0)))

	got, ok, err := c.Get(key, syntax.DialectTypeScript, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleTokens(7), got)

	_, ok, err = c.Get(key, syntax.DialectJavaScript, 7)
	require.NoError(t, err)
	assert.False(t, ok, "dialect mismatch is a miss")
}

func TestMissAndCorruptEntries(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := Key(syntax.DialectJavaScript, []byte("a.$"))

	_, ok, err := c.Get(key, syntax.DialectJavaScript, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	p := c.pathFor(key)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte{0xc1, 0x00, 0xff}, 0o600))
	_, ok, err = c.Get(key, syntax.DialectJavaScript, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyTokenListIsAHit(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	key := Key(syntax.DialectJavaScript, []byte("foo;"))
	require.NoError(t, c.Put(key, syntax.DialectJavaScript, nil))

	got, ok, err := c.Get(key, syntax.DialectJavaScript, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestDropAll(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.DropAll())

	key := Key(syntax.DialectJavaScript, []byte("a.$"))
	require.NoError(t, c.Put(key, syntax.DialectJavaScript, sampleTokens(0)))
	require.NoError(t, c.DropAll())

	_, ok, err := c.Get(key, syntax.DialectJavaScript, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *DiskCache
	require.NoError(t, c.Put(Digest{}, syntax.DialectJavaScript, nil))
	_, ok, err := c.Get(Digest{}, syntax.DialectJavaScript, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, c.Dir())
}
