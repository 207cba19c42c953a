package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlyret/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	model := NewProgressModel("lowering", []string{"./src/a.ts", "src/b.ts"}, events)
	m, ok := model.(*progressModel)
	require.True(t, ok)

	m.Update(eventMsg(driver.Event{File: "src/a.ts", Stage: driver.StageParse, Status: driver.StatusWorking}))
	assert.Equal(t, "parsing", m.items[0].label())
	assert.InDelta(t, 0.1, m.percent(), 1e-9)

	m.Update(eventMsg(driver.Event{File: "src/a.ts", Stage: driver.StageLower, Status: driver.StatusDone, Sites: 3, Elapsed: 12 * time.Millisecond}))
	m.Update(eventMsg(driver.Event{File: "src/b.ts", Stage: driver.StageLower, Status: driver.StatusError, Err: errors.New("boom")}))
	assert.Equal(t, driver.StatusDone, m.items[0].status)
	assert.Equal(t, "error", m.items[1].label())
	assert.InDelta(t, 1.0, m.percent(), 1e-9)

	// повторное финальное событие не считается дважды
	m.Update(eventMsg(driver.Event{File: "src/a.ts", Stage: driver.StageLower, Status: driver.StatusDone, Sites: 3}))
	assert.Equal(t, 2, m.finished)

	m.Update(doneMsg{})
	view := m.View()
	assert.Contains(t, view, "done: lowering (2 files, 1 failed, 3 sites)")
	assert.Contains(t, view, "3 sites  12ms")
	assert.Contains(t, view, "src/b.ts")
}

func TestProgressRunWideStage(t *testing.T) {
	m := NewProgressModel("lowering", []string{"a.ts"}, nil).(*progressModel)
	m.Update(eventMsg(driver.Event{Stage: driver.StageRead, Status: driver.StatusWorking}))
	assert.Equal(t, "reading", m.runLabel)
	assert.Contains(t, m.header(), "lowering (reading)")
}

func TestProgressIgnoresUnknownFiles(t *testing.T) {
	m := NewProgressModel("x", []string{"a.ts"}, nil).(*progressModel)
	m.Update(eventMsg(driver.Event{File: "other.ts", Stage: driver.StageParse, Status: driver.StatusWorking}))
	assert.Equal(t, "queued", m.items[0].label())
	assert.Zero(t, m.percent())
}

func TestProgressQuitKeyInterrupts(t *testing.T) {
	m := NewProgressModel("x", []string{"a.ts"}, nil).(*progressModel)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.False(t, Interrupted(m))

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, Interrupted(m))

	// после завершения прогона выход уже не прерывание
	m.Update(doneMsg{})
	assert.False(t, Interrupted(m))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "日本", truncate("日本語", 4))
	assert.Equal(t, "日本...", truncate("日本語です", 8))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	for _, w := range []int{4, 7, 12} {
		assert.LessOrEqual(t, runewidth.StringWidth(truncate("src/nested/very/long/path/file.ts", w)), w)
	}
}
