package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"markc/internal/buildpipeline"
	"markc/internal/driver"
	"markc/internal/ui"
)

type dirOutcome struct {
	result *driver.DirResult
	err    error
}

// compileDirWithUI runs CompileDir in the background and renders its events.
// The session must have been created with progress going into events.
func compileDirWithUI(ctx context.Context, out io.Writer, title string, files []string, run func(context.Context) (*driver.DirResult, error), events chan buildpipeline.Event) (*driver.DirResult, error) {
	outcomeCh := make(chan dirOutcome, 1)
	go func() {
		res, err := run(ctx)
		outcomeCh <- dirOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
