package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/source"
)

func TestErrorClassification(t *testing.T) {
	err := ErrorAt(SynParseFailure, source.Span{Start: 3, End: 4}, "unexpected %q", "}")
	wrapped := fmt.Errorf("lower a.js: %w", err)

	assert.True(t, errors.Is(wrapped, ErrParseFailure))
	assert.False(t, errors.Is(wrapped, ErrInvalidModifierKind))

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, SynParseFailure, code)
	assert.Equal(t, `SYN2001: unexpected "}"`, err.Error())
}

func TestErrorWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Errorf(IOWriteFailure, "write out.js").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "IO6002: write out.js: disk full", err.Error())

	d := AsDiagnostic(err)
	assert.Equal(t, IOWriteFailure, d.Code)
	assert.Equal(t, "write out.js: disk full", d.Message)
	assert.False(t, d.HasSpan)
}

func TestAsDiagnosticPlainError(t *testing.T) {
	d := AsDiagnostic(errors.New("boom"))
	assert.Equal(t, UnknownCode, d.Code)
	assert.Equal(t, SevError, d.Severity)
	assert.Equal(t, "E0000", d.Code.ID())
}

func TestBagSortAndLimit(t *testing.T) {
	b := NewBag(2)
	assert.True(t, b.Add(Diagnostic{Severity: SevError, Code: EncInvalidUTF8, Primary: source.Span{File: 1, Start: 5}}))
	assert.True(t, b.Add(Diagnostic{Severity: SevError, Code: SynParseFailure, Primary: source.Span{File: 0, Start: 9}}))
	assert.False(t, b.Add(Diagnostic{Severity: SevError}))
	assert.False(t, b.Add(Diagnostic{Severity: SevWarning}))
	assert.Equal(t, 2, b.Dropped())

	b.Sort()
	require.Equal(t, 2, b.Len())
	assert.Equal(t, SynParseFailure, b.Items()[0].Code)
	assert.True(t, b.HasErrors())
}

func TestBagSortSeverityFirstAtSamePosition(t *testing.T) {
	b := NewBag(0)
	at := source.Span{File: 3, Start: 1, End: 2}
	b.Add(Diagnostic{Severity: SevWarning, Code: SynParseFailure, Primary: at})
	b.Add(Diagnostic{Severity: SevError, Code: EncInvalidUTF8, Primary: at})
	assert.False(t, NewBag(0).HasErrors())

	b.Sort()
	assert.Equal(t, SevError, b.Items()[0].Severity)
	assert.Zero(t, b.Dropped())
}

func TestCodeIDs(t *testing.T) {
	assert.Equal(t, "CFG4001", CfgInvalidModifierKind.ID())
	assert.Equal(t, "ENC5002", EncOverlappingEdits.ID())
	assert.Equal(t, "IO6001", IOReadFailure.ID())
	assert.Equal(t, "Unknown error", Code(9999).Title())
}

func TestSeverityNames(t *testing.T) {
	assert.Equal(t, "ERROR", SevError.String())
	assert.Equal(t, "WARNING", SevWarning.String())
	assert.Equal(t, "UNKNOWN", Severity(7).String())
}
