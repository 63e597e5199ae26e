package testing

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyPress creates a key press message for testing.
func KeyPress(key string) tea.KeyMsg {
	return tea.KeyMsg{
		Type:  tea.KeyRunes,
		Runes: []rune(key),
	}
}

// KeyEnter creates an enter key message.
func KeyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// KeyEsc creates an escape key message.
func KeyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

// KeyTab creates a tab key message.
func KeyTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyTab}
}

// KeyDelete creates a delete key message.
func KeyDelete() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDelete}
}

// KeyCtrlS creates a ctrl+s message.
func KeyCtrlS() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyCtrlS}
}

// KeyCtrlC creates a ctrl+c message.
func KeyCtrlC() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyCtrlC}
}

// WindowSize creates a window size message for testing responsive layouts.
func WindowSize(width, height int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{
		Width:  width,
		Height: height,
	}
}

// MousePress creates a button press at the given cell.
func MousePress(x, y int, button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{
		X:      x,
		Y:      y,
		Button: button,
		Action: tea.MouseActionPress,
	}
}

// MouseRelease creates a release at the given cell. Like most terminals it
// does not say which button was released.
func MouseRelease(x, y int) tea.MouseMsg {
	return tea.MouseMsg{
		X:      x,
		Y:      y,
		Button: tea.MouseButtonNone,
		Action: tea.MouseActionRelease,
	}
}

// MouseMotion creates a mouse motion message.
func MouseMotion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{
		X:      x,
		Y:      y,
		Action: tea.MouseActionMotion,
	}
}

// MouseWheel creates one scroll tick at the given cell.
func MouseWheel(x, y int, up bool) tea.MouseMsg {
	button := tea.MouseButtonWheelDown
	if up {
		button = tea.MouseButtonWheelUp
	}
	return MousePress(x, y, button)
}

// Drag presses the left button at (x0, y0), moves to (x1, y1) and releases.
func Drag(x0, y0, x1, y1 int) []tea.Msg {
	return []tea.Msg{
		MousePress(x0, y0, tea.MouseButtonLeft),
		MouseMotion(x1, y1),
		MouseRelease(x1, y1),
	}
}

// InputSequence represents a sequence of inputs for testing.
type InputSequence struct {
	inputs []tea.Msg
}

// NewInputSequence creates a new input sequence.
func NewInputSequence(inputs ...tea.Msg) *InputSequence {
	return &InputSequence{inputs: inputs}
}

// Add adds inputs to the sequence.
func (s *InputSequence) Add(inputs ...tea.Msg) *InputSequence {
	s.inputs = append(s.inputs, inputs...)
	return s
}

// Type adds a string of characters to the sequence.
func (s *InputSequence) Type(text string) *InputSequence {
	for _, r := range text {
		s.inputs = append(s.inputs, tea.KeyMsg{
			Type:  tea.KeyRunes,
			Runes: []rune{r},
		})
	}
	return s
}

// Apply applies all inputs in the sequence to a model using a renderer.
func (s *InputSequence) Apply(model tea.Model, renderer *TestRenderer) tea.Model {
	result := model
	for _, input := range s.inputs {
		result, _ = renderer.Update(result, input)
	}
	return result
}

// Messages returns all messages in the sequence.
func (s *InputSequence) Messages() []tea.Msg {
	return s.inputs
}
