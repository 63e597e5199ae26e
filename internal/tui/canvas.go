package tui

import (
	"image"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/yolo-labeler/internal/annotate"
	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/render"
)

// halfBlock shows two vertically stacked pixels in one cell: the foreground
// paints the top pixel, the background the bottom one.
const halfBlock = "▀"

// layout is the cell geometry of the three columns.
type layout struct {
	listWidth  int
	panelWidth int
	canvasLeft int
	canvasTop  int
	canvasCols int
	canvasRows int
}

func (m Model) layout() layout {
	l := layout{canvasTop: 1}
	if m.width >= 80 {
		l.listWidth = 26
		l.panelWidth = 32
	}
	l.canvasLeft = l.listWidth
	l.canvasCols = max(1, m.width-l.listWidth-l.panelWidth)
	l.canvasRows = max(1, m.height-2)
	return l
}

// screenSize is the canvas size in screen pixels.
func (m Model) screenSize() (int, int) {
	l := m.layout()
	return l.canvasCols * m.scale, 2 * l.canvasRows * m.scale
}

// pixelScale is the number of screen pixels behind one cell pixel. A large
// image gets a coarser grid so the whole image is on screen at zoom 1.
func pixelScale(imgW, imgH, cols, rows int) int {
	if cols <= 0 || rows <= 0 {
		return 1
	}
	need := math.Max(float64(imgW)/float64(cols), float64(imgH)/float64(2*rows))
	return max(1, int(math.Ceil(need)))
}

// cellPoint maps a terminal cell to the screen point of its top pixel.
func (m Model) cellPoint(l layout, col, row int) geometry.Point {
	return geometry.Point{
		X: float64((col - l.canvasLeft) * m.scale),
		Y: float64(2 * (row - l.canvasTop) * m.scale),
	}
}

func (l layout) inCanvas(col, row int) bool {
	return col >= l.canvasLeft && col < l.canvasLeft+l.canvasCols &&
		row >= l.canvasTop && row < l.canvasTop+l.canvasRows
}

// canvasCenter is the zoom anchor for keyboard zoom.
func (m Model) canvasCenter() geometry.Point {
	w, h := m.screenSize()
	return geometry.Point{X: float64(w) / 2, Y: float64(h) / 2}
}

// mouseEvent translates a terminal mouse message into a canvas event.
// Releases carry no button in some terminals, so the last pressed button
// is used.
func (m *Model) mouseEvent(msg tea.MouseMsg) (annotate.Event, bool) {
	l := m.layout()
	inside := l.inCanvas(msg.X, msg.Y)
	pos := m.cellPoint(l, msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionMotion:
		if !inside {
			return annotate.PointerLeave{}, true
		}
		return annotate.PointerMove{Pos: pos}, true

	case tea.MouseActionRelease:
		button, ok := pointerButton(msg.Button)
		if !ok {
			button = m.pressed
		}
		return annotate.PointerUp{Pos: pos, Button: button}, true

	case tea.MouseActionPress:
		if !inside {
			return nil, false
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return annotate.Wheel{Pos: pos, Up: true}, true
		case tea.MouseButtonWheelDown:
			return annotate.Wheel{Pos: pos}, true
		}
		button, ok := pointerButton(msg.Button)
		if !ok {
			return nil, false
		}
		m.pressed = button
		return annotate.PointerDown{Pos: pos, Button: button}, true
	}
	return nil, false
}

func pointerButton(b tea.MouseButton) (annotate.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return annotate.ButtonPrimary, true
	case tea.MouseButtonMiddle:
		return annotate.ButtonMiddle, true
	case tea.MouseButtonRight:
		return annotate.ButtonSecondary, true
	default:
		return 0, false
	}
}

// redraw renders the scene and converts it to half-block cells.
func (m *Model) redraw() {
	if !m.session.Loaded() {
		m.canvas = ""
		return
	}
	l := m.layout()
	w, h := m.screenSize()

	sc := render.Scene{
		Image:       m.image,
		Classes:     m.session.Classes(),
		Boxes:       m.session.Boxes(),
		Viewport:    m.session.Viewport(),
		Selected:    m.session.Selected(),
		ActiveClass: m.session.ActiveClass(),
	}
	if p, ok := m.session.Preview(); ok {
		sc.Preview = &p
	}

	m.canvas = cells(m.renderer.Render(sc, w, h), m.scale, l.canvasCols, l.canvasRows)
}

// cells samples frame on a scale-pixel grid. Runs of identical cells share
// one styled segment.
func cells(frame *image.RGBA, scale, cols, rows int) string {
	var b strings.Builder
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}

		var top, bottom string
		run := 0
		flush := func() {
			if run == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			b.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			run = 0
		}

		for c := 0; c < cols; c++ {
			t := render.Hex(frame.RGBAAt(c*scale, 2*r*scale))
			u := render.Hex(frame.RGBAAt(c*scale, (2*r+1)*scale))
			if run > 0 && (t != top || u != bottom) {
				flush()
			}
			top, bottom = t, u
			run++
		}
		flush()
	}
	return b.String()
}
