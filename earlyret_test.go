package earlyret_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret"
)

const prelude = "const EARLY_RETURN = Symbol();\n" +
	"const __unwrap = (x) => { if (x.isOk) return x.value; else throw {[EARLY_RETURN]: x}; };\n"

func TestProcessTopLevel(t *testing.T) {
	got, err := earlyret.Process("foo.$;", earlyret.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, prelude+"__unwrap(foo);", got)
}

func TestProcessFunction(t *testing.T) {
	got, err := earlyret.Process("function f(x) { return x.$; }", earlyret.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, prelude+
		"function f(x) { try { return __unwrap(x); } catch (e) { if (EARLY_RETURN in e) return e[EARLY_RETURN]; throw e; } }",
		got)
}

func TestProcessWithJavaScript(t *testing.T) {
	src := "const g = (r) => r.$ + 1;"
	got, err := earlyret.ProcessWith(src, earlyret.DefaultConfig(), earlyret.Options{Dialect: earlyret.JavaScript})
	require.NoError(t, err)
	assert.Contains(t, got, "{ try { return __unwrap(r) + 1 }")
}

func TestProcessTypeScriptSyntax(t *testing.T) {
	src := "function f(r: Result<number>): number { return r.$; }"
	got, err := earlyret.Process(src, earlyret.DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, got, "return __unwrap(r);")

	_, err = earlyret.ProcessWith(src, earlyret.DefaultConfig(), earlyret.Options{Dialect: earlyret.JavaScript})
	assert.True(t, errors.Is(err, earlyret.ErrParseFailure))
}

func TestProcessRejectsBadModifier(t *testing.T) {
	_, err := earlyret.ParseModifier("field:isOk")
	assert.True(t, errors.Is(err, earlyret.ErrInvalidModifierKind))

	cfg := earlyret.DefaultConfig()
	cfg.Unwrap = earlyret.PropertyAccess("")
	_, err = earlyret.Process("a.$", cfg)
	assert.True(t, errors.Is(err, earlyret.ErrInvalidConfig))
}

func TestProcessCustomModifiers(t *testing.T) {
	check, err := earlyret.ParseModifier("method:isSuccess")
	require.NoError(t, err)
	cfg := earlyret.Config{ValueCheck: check, Unwrap: earlyret.FunctionCall("getValue"), Mangle: true}

	got, err := earlyret.Process("a.$", cfg)
	require.NoError(t, err)
	assert.Contains(t, got, "x.isSuccess()")
	assert.Contains(t, got, "getValue(x)")
	assert.False(t, strings.Contains(got, "__unwrap(a)"), "mangled output must not use the plain name")
}

func ExampleProcess() {
	out, err := earlyret.Process("function load(r) { const v = r.$; return v * 2; }", earlyret.DefaultConfig())
	if err != nil {
		panic(err)
	}
	fmt.Println(out[strings.LastIndex(out, "function"):])
	// Output:
	// function load(r) { try { const v = __unwrap(r); return v * 2; } catch (e) { if (EARLY_RETURN in e) return e[EARLY_RETURN]; throw e; } }
}
