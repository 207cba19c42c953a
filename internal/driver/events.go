package driver

import "time"

// Stage is a step of the per-file pipeline.
type Stage string

const (
	StageRead    Stage = "read"
	StageParse   Stage = "parse"
	StageExtract Stage = "extract"
	StageLower   Stage = "lower"
	StageWrite   Stage = "write"
)

// Status is where a file is within its current stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole run when File is empty.
// Sites and Elapsed are set on the final event of a file.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Sites   int
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into Ch. Once Done is closed sends are dropped
// rather than blocking on a reader that went away.
type ChannelSink struct {
	Ch   chan<- Event
	Done <-chan struct{}
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	select {
	case s.Ch <- ev:
	case <-s.Done:
	}
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(ev Event) { f(ev) }

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

// sink is opts.Sink, or a sink that drops everything.
func (o Options) sink() ProgressSink {
	if o.Sink == nil {
		return nopSink{}
	}
	return o.Sink
}
