package tui

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/yolo-labeler/internal/annotate"
	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/imagestore"
	"github.com/Veraticus/yolo-labeler/internal/model"
	"github.com/Veraticus/yolo-labeler/internal/predict"
	"github.com/Veraticus/yolo-labeler/internal/render"
	"github.com/Veraticus/yolo-labeler/internal/service"
	"github.com/Veraticus/yolo-labeler/internal/tui/themes"
)

// panStep is the keyboard pan distance in cells.
const panStep = 4

type promptKind int

const (
	promptAddClass promptKind = iota
	promptRenameClass
	promptInstructions
)

// prompt is an open text field. While it is open keys are typed into it
// and never reach the canvas shortcuts.
type prompt struct {
	input textinput.Model
	label string
	kind  promptKind
	index int
}

type confirmKind int

const (
	confirmDeleteClass confirmKind = iota
	confirmDefaultClasses
)

type confirmation struct {
	text  string
	kind  confirmKind
	index int
}

type namedFilter struct {
	name   string
	filter service.ImageFilter
}

// Model holds the main TUI state.
type Model struct {
	theme       themes.Theme
	image       image.Image
	lastError   error
	store       service.Store
	predictor   predict.Predictor
	checkpoints Checkpointer
	library     *imagestore.Library
	session     *annotate.Session
	renderer    *render.Renderer
	prompt      *prompt
	confirm     *confirmation
	help        help.Model
	config      Config
	keymap      KeyMap
	status      string
	canvas      string
	images      []model.ImageFile
	filters     []namedFilter
	filterIdx   int
	scale       int
	width       int
	height      int
	pressed     annotate.Button
	showHelp    bool
	saving      bool
	quitting    bool
	ready       bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	h := help.New()
	h.Width = cfg.Width
	return Model{
		config:      cfg,
		keymap:      DefaultKeyMap(),
		theme:       cfg.Theme,
		store:       cfg.Store,
		library:     cfg.Library,
		predictor:   cfg.Predictor,
		checkpoints: cfg.Checkpoints,
		session:     annotate.NewSession(nil),
		renderer:    render.New(render.WithLabels(false), render.WithStroke(1, 1), render.WithHandleSize(2)),
		help:        h,
		filters:     filterCycle(cfg.Filter),
		scale:       1,
		width:       cfg.Width,
		height:      cfg.Height,
	}
}

// New creates the annotation model.
func New(opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(cfg)
}

// filterCycle lists the filters F steps through. A configured filter that
// is not one of the presets goes first.
func filterCycle(initial service.ImageFilter) []namedFilter {
	filters := []namedFilter{
		{name: "to do", filter: service.DefaultImageFilter()},
		{name: "all", filter: service.ImageFilter{}},
		{name: "done", filter: service.ImageFilter{Statuses: []model.FileStatus{model.StatusDone}}},
		{name: "in progress", filter: service.ImageFilter{Statuses: []model.FileStatus{model.StatusInProgress}}},
		{name: "attention", filter: service.ImageFilter{Statuses: []model.FileStatus{model.StatusAttention}}},
	}
	for i, f := range filters {
		if slices.Equal(f.filter.Statuses, initial.Statuses) {
			filters[0], filters[i] = filters[i], filters[0]
			return filters
		}
	}
	return append([]namedFilter{{name: "custom", filter: initial}}, filters...)
}

func (m Model) currentFilter() namedFilter {
	return m.filters[m.filterIdx%len(m.filters)]
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadClasses(), m.loadImages(true))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if !m.config.MouseSupport {
			return m, nil
		}
		if ev, ok := m.mouseEvent(msg); ok && m.session.Handle(ev) {
			m.redraw()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.rescale()
		return m, nil

	case imagesLoadedMsg:
		m.ready = true
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.images = msg.images
		_, pending := m.session.Pending()
		if !m.session.Loaded() && !pending && len(m.images) > 0 {
			return m, m.switchTo(m.images[0].Name)
		}
		return m, nil

	case classesLoadedMsg:
		return m.handleClassesLoaded(msg)

	case imageLoadedMsg:
		return m.handleImageLoaded(msg)

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.quitting = false
			m.setError(fmt.Errorf("save failed: %w", msg.err))
			return m, nil
		}
		if msg.quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.setStatus(fmt.Sprintf("saved %s (%d boxes)", msg.image, msg.boxes))
		return m, m.loadImages(false)

	case predictionsMsg:
		return m.handlePredictions(msg)

	case classesChangedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.deleted >= 0 {
			if err := m.session.DeleteClass(msg.deleted); err != nil {
				slog.Warn("class delete not applied in memory", "index", msg.deleted, "error", err)
			}
		}
		m.session.SetClasses(msg.classes)
		m.setStatus(msg.action)
		m.redraw()
		return m, m.loadImages(false)

	case statusChangedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%s is now %s", msg.image, msg.status))
		return m, m.loadImages(false)

	case errorMsg:
		m.setError(fmt.Errorf("%s: %w", msg.context, msg.err))
		return m, nil
	}

	return m, nil
}

func (m Model) handleClassesLoaded(msg classesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && !errors.Is(msg.err, common.ErrMalformedPayload) {
		m.setError(msg.err)
		return m, nil
	}
	if msg.err != nil || len(msg.classes) == 0 {
		m.confirm = &confirmation{
			kind: confirmDefaultClasses,
			text: "The class list is unusable. Add the default classes (Person, Car, Animal)? (y/n)",
		}
		return m, nil
	}
	m.session.SetClasses(msg.classes)
	m.redraw()
	return m, nil
}

func (m Model) handleImageLoaded(msg imageLoadedMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if msg.saveErr != nil {
		m.setError(fmt.Errorf("failed to save %s: %w", msg.saved, msg.saveErr))
	} else if msg.saved != "" {
		cmd = m.loadImages(false)
	}

	if msg.err != nil {
		if m.session.FailLoad(msg.ticket) {
			m.image = nil
			m.canvas = ""
			m.setError(msg.err)
		}
		return m, cmd
	}
	if !m.session.CompleteLoad(msg.ticket, msg.width, msg.height, msg.rec) {
		slog.Debug("discarding stale image load", "image", msg.ticket.ImageID)
		return m, cmd
	}

	m.image = msg.img
	m.rescale()
	if msg.saveErr == nil {
		m.setStatus(fmt.Sprintf("%s  %dx%d  %d boxes", msg.ticket.ImageID, msg.width, msg.height, len(m.session.Boxes())))
	}
	return m, cmd
}

func (m Model) handlePredictions(msg predictionsMsg) (tea.Model, tea.Cmd) {
	if msg.image != m.session.ImageID() {
		return m, nil
	}
	if msg.err != nil {
		m.setError(fmt.Errorf("prediction failed: %w", msg.err))
		return m, nil
	}

	w, h := m.session.CanvasSize()
	boxes, skipped := model.ResolvePredictions(msg.batch, m.session.Classes(), w, h)
	added := m.session.MergePredictions(boxes, msg.replace)

	status := fmt.Sprintf("added %d predicted boxes", added)
	if skipped > 0 {
		status += fmt.Sprintf(", skipped %d malformed", skipped)
	}
	m.setStatus(status)
	m.redraw()
	return m, nil
}

// handleKey routes a key press. Open prompts and confirmations take every
// key; otherwise the canvas gets the first look so class shortcuts work.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m.handleConfirm(msg)
	}

	if m.session.Handle(annotate.KeyPress{Key: msg.String(), InTextField: m.prompt != nil}) {
		m.setStatus("class: " + model.ClassName(m.session.Classes(), m.session.ActiveClass()))
		m.redraw()
		return m, nil
	}
	if m.prompt != nil {
		return m.handlePrompt(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	s := m.session
	switch {
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, m.saveCurrent(true)

	case key.Matches(msg, m.keymap.ToggleCreate):
		if s.ToggleArmed() {
			m.setStatus("create mode on: drag on empty space to draw")
		} else {
			m.setStatus("create mode off")
		}

	case key.Matches(msg, m.keymap.DeleteBox):
		if !s.DeleteSelected() {
			return m, nil
		}
		m.setStatus("box deleted")

	case key.Matches(msg, m.keymap.NextBox):
		s.SelectNext()

	case key.Matches(msg, m.keymap.ZoomIn):
		s.ZoomAt(m.canvasCenter(), geometry.ZoomInFactor)

	case key.Matches(msg, m.keymap.ZoomOut):
		s.ZoomAt(m.canvasCenter(), geometry.ZoomOutFactor)

	case key.Matches(msg, m.keymap.ResetView):
		s.ResetView()

	case key.Matches(msg, m.keymap.FitView):
		w, h := m.screenSize()
		s.FitView(w, h)

	case key.Matches(msg, m.keymap.PanUp):
		s.PanBy(0, float64(2*panStep*m.scale))
	case key.Matches(msg, m.keymap.PanDown):
		s.PanBy(0, -float64(2*panStep*m.scale))
	case key.Matches(msg, m.keymap.PanLeft):
		s.PanBy(float64(panStep*m.scale), 0)
	case key.Matches(msg, m.keymap.PanRight):
		s.PanBy(-float64(panStep*m.scale), 0)

	case key.Matches(msg, m.keymap.Save):
		m.saving = true
		return m, m.saveCurrent(false)

	case key.Matches(msg, m.keymap.NextImage):
		return m, m.step(1)
	case key.Matches(msg, m.keymap.PrevImage):
		return m, m.step(-1)

	case key.Matches(msg, m.keymap.CycleStatus):
		if !s.Loaded() {
			return m, nil
		}
		return m, m.cycleStatus(s.ImageID())

	case key.Matches(msg, m.keymap.CycleFilter):
		m.filterIdx = (m.filterIdx + 1) % len(m.filters)
		m.setStatus("showing " + m.currentFilter().name)
		return m, m.loadImages(false)

	case key.Matches(msg, m.keymap.Predict, m.keymap.PredictFresh):
		if !s.Loaded() {
			return m, nil
		}
		m.setStatus("predicting...")
		return m, m.predictCurrent(key.Matches(msg, m.keymap.PredictFresh))

	case key.Matches(msg, m.keymap.AddClass):
		m.openPrompt(promptAddClass, -1, "New class: ", "")
	case key.Matches(msg, m.keymap.RenameClass):
		idx := s.ActiveClass()
		m.openPrompt(promptRenameClass, idx, "Rename class: ", model.ClassName(s.Classes(), idx))
	case key.Matches(msg, m.keymap.Instructions):
		idx := s.ActiveClass()
		var current string
		if classes := s.Classes(); idx < len(classes) {
			current = classes[idx].Instructions
		}
		m.openPrompt(promptInstructions, idx, "Instructions: ", current)

	case key.Matches(msg, m.keymap.DeleteClass):
		idx := s.ActiveClass()
		m.confirm = &confirmation{
			kind:  confirmDeleteClass,
			index: idx,
			text:  fmt.Sprintf("Delete class %q? Its boxes move to class 0. (y/n)", model.ClassName(s.Classes(), idx)),
		}

	default:
		return m, nil
	}

	m.redraw()
	return m, nil
}

func (m Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch {
	case key.Matches(msg, m.keymap.Confirm):
		m.confirm = nil
		switch c.kind {
		case confirmDeleteClass:
			// Outgoing saves still in flight would land after the reindex.
			if _, pending := m.session.Pending(); pending || m.saving {
				m.setStatus("wait for the current save to finish, then delete again")
				return m, nil
			}
			return m, m.deleteClass(c.index)
		case confirmDefaultClasses:
			return m, m.seedDefaultClasses()
		}
	case key.Matches(msg, m.keymap.Cancel):
		m.confirm = nil
		m.setStatus("cancelled")
	}
	return m, nil
}

func (m *Model) openPrompt(kind promptKind, index int, label, value string) {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 200
	in.Width = max(10, m.width-len(label)-4)
	in.Cursor.SetMode(cursor.CursorStatic)
	in.SetValue(value)
	in.Focus()
	m.prompt = &prompt{input: in, label: label, kind: kind, index: index}
}

func (m Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = nil
		m.setStatus("cancelled")
		return m, nil

	case tea.KeyEnter:
		m.prompt = nil
		value := strings.TrimSpace(p.input.Value())
		switch p.kind {
		case promptAddClass:
			if value == "" {
				return m, nil
			}
			return m, m.addClass(value)
		case promptRenameClass:
			if value == "" {
				return m, nil
			}
			return m, m.renameClass(p.index, value)
		case promptInstructions:
			return m, m.updateInstructions(p.index, value)
		}
		return m, nil
	}

	p.input, _ = p.input.Update(msg)
	return m, nil
}

// step moves through the file list, wrapping at both ends.
func (m Model) step(delta int) tea.Cmd {
	n := len(m.images)
	if n == 0 {
		return nil
	}
	next := 0
	if idx := m.currentIndex(); idx >= 0 {
		next = ((idx+delta)%n + n) % n
	} else if delta < 0 {
		next = n - 1
	}
	return m.switchTo(m.images[next].Name)
}

// currentIndex is the list position of the loaded image, or -1.
func (m Model) currentIndex() int {
	name := m.session.ImageID()
	for i, img := range m.images {
		if img.Name == name {
			return i
		}
	}
	return -1
}

// rescale recomputes the pixel grid for the current terminal size. The
// viewport is left alone.
func (m *Model) rescale() {
	if !m.session.Loaded() {
		return
	}
	l := m.layout()
	w, h := m.session.CanvasSize()
	m.scale = pixelScale(w, h, l.canvasCols, l.canvasRows)
	m.renderer = render.New(
		render.WithLabels(false),
		render.WithStroke(m.scale, m.scale),
		render.WithHandleSize(2*m.scale),
	)
	m.redraw()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.lastError = nil
}

func (m *Model) setError(err error) {
	slog.Error("tui error", "error", err)
	m.lastError = err
}
