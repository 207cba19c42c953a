package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one step of a lowering run. Run-wide steps (load) are timed with
// Begin/End; per-file steps (parse, extract, splice, write) fold one sample
// per file and remember the file that took longest.
type Phase struct {
	Name    string
	Start   time.Time
	Dur     time.Duration
	Count   int
	Note    string
	Slowest string
	Max     time.Duration
}

// Mean is the average sample, or Dur for a run-wide phase.
func (p Phase) Mean() time.Duration {
	if p.Count <= 1 {
		return p.Dur
	}
	return p.Dur / time.Duration(p.Count)
}

// Timer collects phases of one run. Safe for concurrent use by workers.
type Timer struct {
	mu      sync.Mutex
	created time.Time
	phases  []Phase
	byName  map[string]int
}

func NewTimer() *Timer {
	return &Timer{created: time.Now(), byName: make(map[string]int, 8)}
}

// Begin starts a run-wide phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now(), Count: 1})
	return len(t.phases) - 1
}

// End closes the phase started by Begin. Unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
}

// Add folds the time file spent in the per-file phase name.
func (t *Timer) Add(name, file string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byName[name]
	if !ok {
		idx = len(t.phases)
		t.byName[name] = idx
		t.phases = append(t.phases, Phase{Name: name})
	}
	p := &t.phases[idx]
	p.Dur += d
	p.Count++
	if d > p.Max || p.Slowest == "" {
		p.Max, p.Slowest = d, file
	}
}

// PhaseReport содержит сжатую информацию о фазе для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	MeanMS     float64 `json:"mean_ms,omitempty"`
	Files      int     `json:"files,omitempty"`
	Slowest    string  `json:"slowest,omitempty"`
	SlowestMS  float64 `json:"slowest_ms,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Report is a snapshot of the timer. WallMS is the elapsed time since the
// timer was created; WorkMS sums the per-file phases across all workers and
// can exceed it.
type Report struct {
	WallMS float64       `json:"wall_ms"`
	WorkMS float64       `json:"work_ms"`
	Phases []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	report := Report{WallMS: millis(time.Since(t.created))}
	if len(t.phases) == 0 {
		return report
	}
	report.Phases = make([]PhaseReport, len(t.phases))
	var work time.Duration
	for i, p := range t.phases {
		pr := PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note}
		if p.Slowest != "" {
			work += p.Dur
			pr.Files = p.Count
			pr.MeanMS = millis(p.Mean())
			pr.Slowest = p.Slowest
			pr.SlowestMS = millis(p.Max)
		}
		report.Phases[i] = pr
	}
	report.WorkMS = millis(work)
	return report
}

// Summary renders the report as an aligned table for stderr.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-10s %9.2f ms", p.Name, p.DurationMS)
		if p.Files > 0 {
			fmt.Fprintf(&sb, "  %d files, avg %.2f ms, slowest %s (%.2f ms)", p.Files, p.MeanMS, p.Slowest, p.SlowestMS)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-10s %9.2f ms  (work %.2f ms)\n", "wall", report.WallMS, report.WorkMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
