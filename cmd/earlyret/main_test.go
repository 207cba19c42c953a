package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/diagfmt"
)

const prelude = "const EARLY_RETURN = Symbol();\n" +
	"const __unwrap = (x) => { if (x.isOk) return x.value; else throw {[EARLY_RETURN]: x}; };\n"

// resetFlags restores defaults: cobra keeps flag values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	manifest := filepath.Join(t.TempDir(), "earlyret.toml")
	require.NoError(t, os.WriteFile(manifest, []byte("[cache]\nenabled = false\n"), 0o644))

	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", manifest, "--color", "off"}, args...))
	err = rootCmd.Execute()
	runCleanups()
	return out.String(), errOut.String(), err
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, " on ": uiModeOn, "off": uiModeOff} {
		got, err := readUIMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readUIMode("sometimes")
	assert.Error(t, err)
	assert.True(t, uiModeOn.wantsTUI(nil))
	assert.False(t, uiModeOff.wantsTUI(nil))
}

func TestLowerStdin(t *testing.T) {
	out, _, err := execute(t, "foo.$;", "lower")
	require.NoError(t, err)
	assert.Equal(t, prelude+"__unwrap(foo);", out)
}

func TestLowerStdinModifierFlags(t *testing.T) {
	out, _, err := execute(t, "a.$", "lower", "--value-check", "method:isSuccess", "--unwrap", "function:get")
	require.NoError(t, err)
	assert.Contains(t, out, "if (x.isSuccess()) return get(x);")
}

func TestLowerRejectsBadModifierKind(t *testing.T) {
	_, _, err := execute(t, "a.$", "lower", "--unwrap", "field:value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CFG4001")
}

func TestLowerParseErrorReportsDiagnostic(t *testing.T) {
	_, stderr, err := execute(t, "function (", "lower")
	require.Error(t, err)
	assert.Contains(t, stderr, "SYN2001")
}

func TestLowerDiagnosticsJSON(t *testing.T) {
	_, stderr, err := execute(t, "function (", "lower", "--diagnostics", "json")
	require.Error(t, err)

	var out diagfmt.DiagnosticsOutput
	require.NoError(t, json.NewDecoder(strings.NewReader(stderr)).Decode(&out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "SYN2001", out.Diagnostics[0].Code)
	require.NotNil(t, out.Diagnostics[0].Location)
	assert.Equal(t, "function (", out.Diagnostics[0].Location.Line)

	_, _, err = execute(t, "x;", "lower", "--paths", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --paths value")

	_, _, err = execute(t, "x;", "lower", "--diagnostics", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported diagnostics format")
}

func TestLowerDirectoryInPlace(t *testing.T) {
	dir := t.TempDir()
	withOp := filepath.Join(dir, "a.ts")
	plain := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(withOp, []byte("function f(x) { return x.$; }"), 0o644))
	require.NoError(t, os.WriteFile(plain, []byte("noop();\n"), 0o644))

	_, stderr, err := execute(t, "", "lower", "-w", "--ui", "off", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "lowered 2 file(s): 1 changed, 1 written, 0 failed")

	got, err := os.ReadFile(withOp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), prelude))
	assert.Contains(t, string(got), "try { return __unwrap(x); }")

	got, err = os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "noop();\n", string(got))
}

func TestLowerWriteAndOutConflict(t *testing.T) {
	_, _, err := execute(t, "", "lower", "-w", "-o", t.TempDir(), ".")
	assert.ErrorContains(t, err, "cannot be used together")
}

func TestTokensJSON(t *testing.T) {
	out, _, err := execute(t, "function f(r) { return r.$; }", "tokens", "--format", "json", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "scope"`)
	assert.Contains(t, out, `"kind": "site"`)
	assert.Contains(t, out, `"text": "r"`)
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "", "version", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"go_version"`)
	assert.Contains(t, out, `"cache_schema": 2`)
	assert.NotContains(t, out, `"grammars"`)
}

func TestVersionFullListsGrammars(t *testing.T) {
	out, _, err := execute(t, "", "version", "--full", "--format", "json")
	require.NoError(t, err)

	var rep versionReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, uint16(2), rep.CacheSchema)
	assert.Equal(t, "unknown", rep.GitCommit)
	for _, d := range grammarDialects {
		assert.Positive(t, rep.Grammars[d.String()], d.String())
	}
}
