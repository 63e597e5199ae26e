// Package testing provides test utilities for TUI components.
package testing

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// TestRenderer captures the output of a Bubble Tea component without requiring a real terminal.
type TestRenderer struct {
	// Output contains the last rendered view
	Output string

	// Commands contains all commands returned by Update calls
	Commands []tea.Cmd

	// Messages contains all messages sent to the component
	Messages []tea.Msg

	// UpdateCount tracks how many times Update was called
	UpdateCount int

	// Quit is set once a drained command asked the program to exit
	Quit bool
}

// NewTestRenderer creates a new test renderer.
func NewTestRenderer() *TestRenderer {
	return &TestRenderer{
		Commands: make([]tea.Cmd, 0),
		Messages: make([]tea.Msg, 0),
	}
}

// Render renders a component and captures its output.
func (r *TestRenderer) Render(model tea.Model) string {
	r.Output = model.View()
	return r.Output
}

// Update sends a message to the component and captures the result.
func (r *TestRenderer) Update(model tea.Model, msg tea.Msg) (tea.Model, tea.Cmd) {
	r.Messages = append(r.Messages, msg)
	r.UpdateCount++

	newModel, cmd := model.Update(msg)
	if cmd != nil {
		r.Commands = append(r.Commands, cmd)
	}

	// Update the rendered output
	r.Output = newModel.View()

	return newModel, cmd
}

// ProcessCommands executes all pending commands and returns their messages.
// This is useful for testing command chains.
func (r *TestRenderer) ProcessCommands(model tea.Model) (tea.Model, []tea.Msg) {
	pending := r.Commands
	r.Commands = nil

	var messages []tea.Msg
	for _, cmd := range pending {
		var msgs []tea.Msg
		model, msgs = r.Drain(model, cmd)
		messages = append(messages, msgs...)
	}
	return model, messages
}

// Drain runs cmd and every command it produces until none are left,
// feeding each message back into the model. Batches are expanded in order.
// A quit message stops the chain and sets Quit.
func (r *TestRenderer) Drain(model tea.Model, cmd tea.Cmd) (tea.Model, []tea.Msg) {
	var messages []tea.Msg
	queue := []tea.Cmd{cmd}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			r.Quit = true
			continue
		}

		messages = append(messages, msg)
		var follow tea.Cmd
		r.Messages = append(r.Messages, msg)
		r.UpdateCount++
		model, follow = model.Update(msg)
		r.Output = model.View()
		queue = append(queue, follow)
	}

	r.Commands = nil
	return model, messages
}

// LastCommand returns the most recent command, or nil if no commands were generated.
func (r *TestRenderer) LastCommand() tea.Cmd {
	if len(r.Commands) == 0 {
		return nil
	}
	return r.Commands[len(r.Commands)-1]
}

// StripANSI removes ANSI escape codes from the output for content-only testing.
func (r *TestRenderer) StripANSI() string {
	return StripANSI(r.Output)
}

// Lines returns the output split by newlines.
func (r *TestRenderer) Lines() []string {
	return strings.Split(r.Output, "\n")
}

// Reset clears all captured data.
func (r *TestRenderer) Reset() {
	r.Output = ""
	r.Commands = nil
	r.Messages = nil
	r.UpdateCount = 0
	r.Quit = false
}
