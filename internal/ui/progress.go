package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"earlyret/internal/driver"
)

// stageInfo is how a pipeline stage is shown and how far along it puts a file.
type stageInfo struct {
	label string
	share float64
}

var stages = map[driver.Stage]stageInfo{
	driver.StageRead:    {"reading", 0.05},
	driver.StageParse:   {"parsing", 0.2},
	driver.StageExtract: {"extracting", 0.5},
	driver.StageLower:   {"lowering", 0.7},
	driver.StageWrite:   {"writing", 0.9},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	detailStyle  = lipgloss.NewStyle().Faint(true)
)

const (
	statusWidth = 12
	detailWidth = 18 // "123 sites  4.5s"
	minName     = 20
)

type progressModel struct {
	title    string
	events   <-chan driver.Event
	spinner  spinner.Model
	prog     progress.Model
	items    []fileItem
	index    map[string]int
	runLabel string // stage of run-wide events
	width    int
	done     bool
	stopped  bool // the user quit before the run ended
	finished int
	failed   int
	sites    int
}

type fileItem struct {
	path    string
	status  driver.Status
	stage   driver.Stage
	sites   int
	elapsed time.Duration
}

func (it fileItem) final() bool {
	return it.status == driver.StatusDone || it.status == driver.StatusError
}

func (it fileItem) label() string {
	if it.status == driver.StatusWorking {
		return stages[it.stage].label
	}
	return string(it.status)
}

func (it fileItem) style() lipgloss.Style {
	switch it.status {
	case driver.StatusDone:
		return doneStyle
	case driver.StatusError:
		return errorStyle
	case driver.StatusWorking:
		return workingStyle
	default:
		return idleStyle
	}
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel renders per-file lowering progress until events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   make([]fileItem, len(files)),
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.items[i] = fileItem{path: file, status: driver.StatusQueued}
		m.index[fileKey(file)] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.stopped = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		next, cmd := m.prog.Update(msg)
		m.prog = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-detailWidth-6, minName)
	for _, it := range m.items {
		status := it.style().Render(fmt.Sprintf("%*s", statusWidth, it.label()))
		fmt.Fprintf(&b, "  %s %s", status, truncate(it.path, nameWidth))
		if it.status == driver.StatusDone {
			b.WriteString("  ")
			b.WriteString(detailStyle.Render(fmt.Sprintf("%d sites  %s", it.sites, it.elapsed.Round(time.Millisecond))))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// Interrupted reports whether the user quit the view returned by
// NewProgressModel before the run finished.
func Interrupted(model tea.Model) bool {
	m, ok := model.(*progressModel)
	return ok && m.stopped && !m.done
}

func (m *progressModel) header() string {
	if m.done {
		return fmt.Sprintf("done: %s (%d files, %d failed, %d sites)", m.title, m.finished, m.failed, m.sites)
	}
	header := m.title
	if m.runLabel != "" {
		header += " (" + m.runLabel + ")"
	}
	return m.spinner.View() + " " + header
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	if ev.File == "" {
		if info, ok := stages[ev.Stage]; ok && ev.Status == driver.StatusWorking {
			m.runLabel = info.label
		}
		return nil
	}
	idx, ok := m.index[fileKey(ev.File)]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	if it.final() {
		return nil
	}
	it.status, it.stage = ev.Status, ev.Stage
	switch ev.Status {
	case driver.StatusDone:
		it.sites, it.elapsed = ev.Sites, ev.Elapsed
		m.finished++
		m.sites += ev.Sites
	case driver.StatusError:
		it.elapsed = ev.Elapsed
		m.finished++
		m.failed++
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range m.items {
		if it.final() {
			total++
		} else if it.status == driver.StatusWorking {
			total += stages[it.stage].share
		}
	}
	return total / float64(len(m.items))
}

// fileKey matches the path normalization the driver applies to loaded files.
func fileKey(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// хвост входит в ширину; если от имени ничего не осталось, режем без него
	out := runewidth.Truncate(value, width, "...")
	if out == "..." {
		return runewidth.Truncate(value, width, "")
	}
	return out
}
