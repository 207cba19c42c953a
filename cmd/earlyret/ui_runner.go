package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"earlyret/internal/driver"
	"earlyret/internal/ui"
)

// uiMode is the --ui flag: whether directory runs show the progress view.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

var uiModes = map[string]uiMode{"": uiModeAuto, "auto": uiModeAuto, "on": uiModeOn, "off": uiModeOff}

func readUIMode(value string) (uiMode, error) {
	if m, ok := uiModes[strings.ToLower(strings.TrimSpace(value))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// wantsTUI resolves auto against out: the view needs a terminal to draw on.
func (m uiMode) wantsTUI(out *os.File) bool {
	if m == uiModeAuto {
		return isTerminal(out)
	}
	return m == uiModeOn
}

type lowerOutcome struct {
	run *driver.Run
	err error
}

var errInterrupted = errors.New("interrupted")

// runLowerWithUI runs the driver in the background while Bubble Tea renders its
// events. Quitting the view cancels the files not yet started.
func runLowerWithUI(ctx context.Context, title string, files []string, base string, opts driver.Options) (*driver.Run, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lowerOutcome, 1)
	go func() {
		o := opts
		o.Sink = driver.ChannelSink{Ch: events, Done: ctx.Done()}
		run, err := driver.LowerPaths(ctx, files, base, o)
		outcomeCh <- lowerOutcome{run: run, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(os.Stdout))
	final, uiErr := program.Run()
	interrupted := uiErr != nil || ui.Interrupted(final)
	if interrupted {
		// воркеры бросают отправку событий по ctx.Done
		cancel()
	}
	outcome := <-outcomeCh
	switch {
	case uiErr != nil:
		return outcome.run, uiErr
	case interrupted:
		return outcome.run, errInterrupted
	}
	return outcome.run, outcome.err
}
