package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Canvas
	ToggleCreate key.Binding
	DeleteBox    key.Binding
	NextBox      key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	ResetView    key.Binding
	FitView      key.Binding
	PanUp        key.Binding
	PanDown      key.Binding
	PanLeft      key.Binding
	PanRight     key.Binding

	// Files
	Save         key.Binding
	NextImage    key.Binding
	PrevImage    key.Binding
	CycleStatus  key.Binding
	CycleFilter  key.Binding
	Predict      key.Binding
	PredictFresh key.Binding

	// Classes
	AddClass     key.Binding
	RenameClass  key.Binding
	DeleteClass  key.Binding
	Instructions key.Binding
	ClassKeys    key.Binding

	// Prompts
	Confirm key.Binding
	Cancel  key.Binding

	// Application
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ToggleCreate: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "create mode"),
		),
		DeleteBox: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x/Del", "delete box"),
		),
		NextBox: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next box"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),
		ResetView: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset view"),
		),
		FitView: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fit image"),
		),
		PanUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "pan up"),
		),
		PanDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "pan down"),
		),
		PanLeft: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "pan left"),
		),
		PanRight: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "pan right"),
		),

		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "save"),
		),
		NextImage: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next image"),
		),
		PrevImage: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous image"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "cycle filter"),
		),
		Predict: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "add predictions"),
		),
		PredictFresh: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "replace with predictions"),
		),

		AddClass: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add class"),
		),
		RenameClass: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename class"),
		),
		DeleteClass: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete class"),
		),
		Instructions: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "instructions"),
		),
		ClassKeys: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "pick class"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("Enter/y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "n"),
			key.WithHelp("Esc/n", "cancel"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "save & quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit without saving"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleCreate, k.Save, k.NextImage, k.ClassKeys, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleCreate, k.DeleteBox, k.NextBox, k.ClassKeys},
		{k.ZoomIn, k.ZoomOut, k.ResetView, k.FitView},
		{k.PanUp, k.PanDown, k.PanLeft, k.PanRight},
		{k.Save, k.NextImage, k.PrevImage, k.CycleStatus, k.CycleFilter},
		{k.Predict, k.PredictFresh, k.AddClass, k.RenameClass, k.DeleteClass, k.Instructions},
		{k.Help, k.Quit, k.ForceQuit},
	}
}
