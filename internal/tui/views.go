package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/render"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}

	l := m.layout()
	var body string
	if m.showHelp {
		m.help.ShowAll = true
		body = lipgloss.Place(m.width, l.canvasRows, lipgloss.Center, lipgloss.Center, m.help.View(m.keymap))
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderFileList(l),
			m.renderCanvas(l),
			m.renderPanel(l),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Loading labeler..."),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Scanning image directory"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHeader() string {
	parts := []string{m.theme.Bold.Render("labeler")}

	if name := m.session.ImageID(); name != "" {
		pos := "?"
		if idx := m.currentIndex(); idx >= 0 {
			pos = fmt.Sprintf("%d", idx+1)
		}
		parts = append(parts, fmt.Sprintf("%s [%s/%d]", name, pos, len(m.images)))
	}

	mode := "select"
	if m.session.Armed() {
		mode = m.theme.StatusSuccess.Render("create")
	}
	parts = append(parts,
		"mode: "+mode,
		"state: "+m.session.State().Name(),
		fmt.Sprintf("zoom: %.0f%%", m.session.Viewport().Zoom*100),
	)

	return clip(strings.Join(parts, "  │  "), m.width)
}

// renderFileList shows every listed image with its status letter and
// per-class box counts.
func (m Model) renderFileList(l layout) string {
	if l.listWidth == 0 {
		return ""
	}

	lines := []string{m.theme.Bold.Render(clip("Images · "+m.currentFilter().name, l.listWidth))}
	visible := l.canvasRows - 1
	cur := m.currentIndex()
	offset := max(0, min(cur-visible/2, len(m.images)-visible))

	for i := offset; i < len(m.images) && i < offset+visible; i++ {
		img := m.images[i]
		line := clip(fmt.Sprintf("%s %s %s", img.Status.Letter(), img.Name, countsLabel(img.BoxCounts)), l.listWidth-1)
		switch {
		case i == cur:
			line = m.theme.Selected.Render(line)
		case img.Status == model.StatusDone:
			line = m.theme.StatusSuccess.Render(line)
		case img.Status == model.StatusAttention:
			line = m.theme.StatusWarning.Render(line)
		}
		lines = append(lines, line)
	}
	if len(m.images) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Muted).Render("no images"))
	}

	return lipgloss.NewStyle().
		Width(l.listWidth).
		Height(l.canvasRows).
		MaxHeight(l.canvasRows).
		Render(strings.Join(lines, "\n"))
}

// countsLabel renders counts as "Car:1 Person:2", sorted by class name.
func countsLabel(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, counts[name]))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderCanvas(l layout) string {
	if m.canvas == "" {
		msg := "No image loaded"
		if _, pending := m.session.Pending(); pending {
			msg = "Loading image..."
		}
		return lipgloss.Place(l.canvasCols, l.canvasRows, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render(msg))
	}
	return m.canvas
}

// renderPanel shows the classes with their shortcuts, the instructions of
// the active class, and the box table.
func (m Model) renderPanel(l layout) string {
	if l.panelWidth == 0 {
		return ""
	}
	w := l.panelWidth - 1
	classes := m.session.Classes()
	active := m.session.ActiveClass()

	lines := []string{m.theme.Bold.Render("Classes")}
	for i, c := range classes {
		shortcut := " "
		if i < 9 {
			shortcut = fmt.Sprintf("%d", i+1)
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(render.Hex(render.ClassColor(i)))).Render("■")
		line := fmt.Sprintf("%s %s %s", shortcut, swatch, clip(c.Name, w-4))
		if i == active {
			line = m.theme.Highlighted.Render(line)
		}
		lines = append(lines, line)
	}

	if active < len(classes) && classes[active].Instructions != "" {
		lines = append(lines, "", m.theme.Bold.Render("Instructions"))
		lines = append(lines, lipgloss.NewStyle().Width(w).Foreground(m.theme.Secondary).Render(classes[active].Instructions))
	}

	boxes := m.session.Boxes()
	selected := m.session.Selected()
	lines = append(lines, "", m.theme.Bold.Render(fmt.Sprintf("Boxes (%d)", len(boxes))))
	for i, b := range boxes {
		line := clip(fmt.Sprintf("%d %s %.0f,%.0f %.0fx%.0f", i+1, render.BoxLabel(classes, b), b.X, b.Y, b.Width, b.Height), w)
		switch {
		case i == selected:
			line = m.theme.Selected.Render(line)
		case b.Predicted:
			line = m.theme.StatusInfo.Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.NewStyle().
		Width(l.panelWidth).
		Height(l.canvasRows).
		MaxHeight(l.canvasRows).
		PaddingLeft(1).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatusBar() string {
	switch {
	case m.prompt != nil:
		return m.theme.Bold.Render(m.prompt.label) + m.prompt.input.View()
	case m.confirm != nil:
		return m.theme.StatusWarning.Render(clip(m.confirm.text, m.width))
	case m.lastError != nil:
		return m.theme.StatusError.Render(clip("✗ "+common.UserMessage(m.lastError), m.width))
	}

	text := m.status
	if p, ok := m.session.Preview(); ok {
		text = render.DimensionLabel(p)
	}
	return clip(text, m.width-8) + lipgloss.NewStyle().Foreground(m.theme.Muted).Render("  ? help")
}

// clip truncates s to w runes.
func clip(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}
