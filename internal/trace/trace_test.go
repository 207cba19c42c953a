package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/source"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DETAIL")
	require.NoError(t, err)
	assert.Equal(t, LevelDetail, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelScopes(t *testing.T) {
	assert.False(t, LevelOff.ShouldEmit(ScopeDriver))
	assert.True(t, LevelPhase.ShouldEmit(ScopePass))
	assert.False(t, LevelPhase.ShouldEmit(ScopeFile))
	assert.True(t, LevelDetail.ShouldEmit(ScopeFile))
	assert.False(t, LevelDetail.ShouldEmit(ScopeToken))
	assert.True(t, LevelDebug.ShouldEmit(ScopeToken))
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	require.NoError(t, err)
	assert.False(t, tr.Enabled())

	ctx, s := StartSpan(WithTracer(context.Background(), tr), ScopeDriver, "lower")
	assert.Zero(t, s.ID())
	s.WithExtra("k", "v")
	assert.GreaterOrEqual(t, s.End(""), time.Duration(0))
	assert.Equal(t, Nop, FromContext(ctx))

	// без трассировщика контекст всё равно несёт файл
	ctx = WithFile(context.Background(), "a.ts")
	assert.Equal(t, "a.ts", FileOf(ctx))
	assert.Equal(t, Nop, FromContext(ctx))
}

func TestFileSpanTagsEvents(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Output: &buf, Format: FormatNDJSON})
	require.NoError(t, err)

	ctx := WithTracer(context.Background(), tr)
	ctx, root := StartSpan(ctx, ScopeDriver, "lower")
	fctx, file := StartFileSpan(ctx, "src/a.ts")
	Mark(fctx, ScopeToken, "site", &source.Span{Start: 4, End: 9}, "x.$")
	file.WithExtra("sites", "1").End("")
	root.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	var begin, mark, end jsonEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &begin))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &mark))
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &end))

	assert.Equal(t, "src/a.ts", begin.File)
	assert.Equal(t, root.ID(), begin.ParentID)

	assert.Equal(t, "point", mark.Kind)
	assert.Equal(t, "src/a.ts", mark.File)
	assert.Equal(t, file.ID(), mark.ParentID)
	require.NotNil(t, mark.At)
	assert.Equal(t, [2]uint32{4, 9}, *mark.At)

	assert.Equal(t, "end", end.Kind)
	assert.Equal(t, "1", end.Extra["sites"])
	assert.Equal(t, begin.SpanID, end.SpanID)
	assert.Equal(t, begin.GID, end.GID)
	assert.Greater(t, end.Seq, mark.Seq)

	var driverEnd jsonEvent
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &driverEnd))
	assert.Empty(t, driverEnd.File)
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithFile(WithTracer(context.Background(), NewStreamTracer(&buf, LevelDebug, FormatText)), "a.ts")
	Mark(ctx, ScopeToken, "site", &source.Span{Start: 4, End: 9}, "x.$")
	Mark(ctx, ScopePass, "splice", nil, "3 ops")

	out := buf.String()
	assert.Contains(t, out, "[token] • site a.ts@4-9 (x.$)")
	assert.Contains(t, out, "[pass] • splice a.ts (3 ops)")
}

func TestRingKeepsLatest(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	for _, name := range []string{"a", "b", "c"} {
		Mark(ctx, ScopePass, name, nil, "")
	}
	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].Name)
	assert.Equal(t, "c", snap[1].Name)

	var buf bytes.Buffer
	require.NoError(t, r.Dump(&buf, FormatText))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestRingDumpKeepsFailedFiles(t *testing.T) {
	r := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	Mark(ctx, ScopeDriver, "start", nil, "")
	Mark(WithFile(ctx, "ok.ts"), ScopeFile, "done", nil, "")
	Mark(WithFile(ctx, "bad.ts"), ScopeFile, "error", &source.Span{Start: 7, End: 8}, "SYN2001")

	var buf bytes.Buffer
	require.NoError(t, r.Dump(&buf, FormatText, "bad.ts"))
	out := buf.String()
	assert.Contains(t, out, "start")
	assert.Contains(t, out, "error bad.ts@7-8 (SYN2001)")
	assert.NotContains(t, out, "ok.ts")
}

type failingTracer struct {
	leveled
	err error
}

func (failingTracer) Emit(*Event)       {}
func (f failingTracer) Flush() error { return f.err }
func (f failingTracer) Close() error { return f.err }

func TestBothModeTees(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	require.NoError(t, err)
	require.NotNil(t, Ring(tr))
	assert.Nil(t, Ring(Nop))

	Mark(WithTracer(context.Background(), tr), ScopePass, "parse", nil, "")
	assert.Len(t, Ring(tr).Snapshot(), 1)
	assert.Contains(t, buf.String(), "parse")

	boom := errors.New("boom")
	both := tee{NewRingTracer(1, LevelError), failingTracer{leveled{LevelDebug}, boom}}
	assert.Equal(t, LevelDebug, both.Level())
	assert.ErrorIs(t, both.Close(), boom)
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{OutputPath: "run.ndjson"}.normalize()
	assert.Equal(t, LevelPhase, cfg.Level)
	assert.Equal(t, ModeStream, cfg.Mode)
	assert.Equal(t, FormatNDJSON, cfg.Format)
	assert.Equal(t, defaultRingSize, cfg.RingSize)

	cfg = Config{Level: LevelError}.normalize()
	assert.Equal(t, ModeRing, cfg.Mode)
	assert.Equal(t, FormatText, cfg.Format)

	cfg = Config{Level: LevelError, Mode: ModeBoth}.normalize()
	assert.Equal(t, ModeBoth, cfg.Mode)

	tr, err := New(Config{Level: LevelError})
	require.NoError(t, err)
	assert.IsType(t, &RingTracer{}, tr)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Ring")
	require.NoError(t, err)
	assert.Equal(t, ModeRing, m)
	assert.Equal(t, "both", ModeBoth.String())

	_, err = ParseMode("")
	assert.ErrorContains(t, err, "stream|ring|both")
}
