package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/geometry"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

func TestLoad_ResetsViewAndSelection(t *testing.T) {
	s := loadedSession(t, model.Box{X: 10, Y: 10, Width: 20, Height: 20})
	s.Select(0)
	s.ZoomAt(pt(50, 50), geometry.ZoomInFactor)
	s.PanBy(30, -12)

	rec := model.AnnotationRecord{Boxes: []model.YOLORecord{
		{Class: 1, XCenter: 0.25, YCenter: 0.5, Width: 0.1, Height: 0.2},
	}}
	ticket := s.BeginLoad("next.jpg")
	require.True(t, s.CompleteLoad(ticket, 400, 300, &rec))

	assert.Equal(t, "next.jpg", s.ImageID())
	assert.Equal(t, geometry.Identity(), s.Viewport())
	assert.Equal(t, NoSelection, s.Selected())
	assert.Equal(t, Idle{}, s.State())

	w, h := s.CanvasSize()
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, []model.Box{{ClassIndex: 1, X: 80, Y: 120, Width: 40, Height: 60}}, s.Boxes())
}

func TestLoad_MissingRecordYieldsEmptyBoxes(t *testing.T) {
	s := loadedSession(t, model.Box{Width: 10, Height: 10})

	ticket := s.BeginLoad("empty.jpg")
	require.True(t, s.CompleteLoad(ticket, 50, 50, nil))

	assert.NotNil(t, s.Boxes())
	assert.Empty(t, s.Boxes())
	cached, ok := s.Cached("empty.jpg")
	require.True(t, ok)
	assert.Empty(t, cached)
}

func TestLoad_StaleTicketDiscarded(t *testing.T) {
	s := NewSession(testClasses(1))

	first := s.BeginLoad("slow.jpg")
	second := s.BeginLoad("fast.jpg")

	require.True(t, s.CompleteLoad(second, 100, 100, nil))
	assert.False(t, s.CompleteLoad(first, 999, 999, nil))
	assert.False(t, s.FailLoad(first))

	assert.Equal(t, "fast.jpg", s.ImageID())
	w, _ := s.CanvasSize()
	assert.Equal(t, 100, w)

	_, pending := s.Pending()
	assert.False(t, pending)
}

func TestLoad_TicketCompletesOnce(t *testing.T) {
	s := NewSession(testClasses(1))
	ticket := s.BeginLoad("a.jpg")

	require.True(t, s.CompleteLoad(ticket, 10, 10, nil))
	assert.False(t, s.CompleteLoad(ticket, 10, 10, nil))
}

func TestLoad_FailureClearsCanvas(t *testing.T) {
	s := loadedSession(t, model.Box{Width: 10, Height: 10})
	s.Select(0)

	ticket := s.BeginLoad("broken.jpg")
	require.True(t, s.FailLoad(ticket))

	assert.False(t, s.Loaded())
	assert.Empty(t, s.Boxes())
	assert.Equal(t, NoSelection, s.Selected())
	assert.False(t, s.Handle(PointerDown{Pos: pt(5, 5), Button: ButtonPrimary}))
}
