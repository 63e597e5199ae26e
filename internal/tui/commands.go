package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/yolo-labeler/internal/common"
	"github.com/Veraticus/yolo-labeler/internal/model"
)

const (
	loadTimeout  = 30 * time.Second
	storeTimeout = 10 * time.Second
)

var errNotConfigured = errors.New("storage not configured")

// loadImages refreshes the file list. With sync set the image directory is
// scanned and new files are registered first.
func (m Model) loadImages(sync bool) tea.Cmd {
	store, library := m.store, m.library
	filter := m.currentFilter().filter
	return func() tea.Msg {
		if store == nil {
			return imagesLoadedMsg{err: errNotConfigured}
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		if sync && library != nil {
			if _, err := library.Sync(ctx); err != nil {
				return imagesLoadedMsg{err: fmt.Errorf("failed to scan images: %w", err)}
			}
		}

		images, err := store.ListImages(ctx, filter)
		if err != nil {
			return imagesLoadedMsg{err: err}
		}
		return imagesLoadedMsg{images: images}
	}
}

// loadClasses loads the class list from storage.
func (m Model) loadClasses() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if store == nil {
			return classesLoadedMsg{err: errNotConfigured}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		classes, err := store.GetClasses(ctx)
		return classesLoadedMsg{classes: classes, err: err}
	}
}

// switchTo starts loading name. The outgoing image is snapshotted now and
// saved by the same command before the new image is read, so a quick
// back-and-forth always sees its own edits.
func (m Model) switchTo(name string) tea.Cmd {
	outgoing, rec, flushErr := m.session.SavePayload()
	flush := flushErr == nil
	ticket := m.session.BeginLoad(name)
	store, library := m.store, m.library

	return func() tea.Msg {
		msg := imageLoadedMsg{ticket: ticket}
		if store == nil || library == nil {
			msg.err = errNotConfigured
			return msg
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		if flush {
			msg.saved = outgoing
			msg.saveErr = store.SaveAnnotations(ctx, outgoing, rec)
		}

		img, err := library.Open(name)
		if err != nil {
			msg.err = err
			return msg
		}
		stored, err := store.GetAnnotations(ctx, name)
		if err != nil {
			msg.err = fmt.Errorf("failed to load annotations for %s: %w", name, err)
			return msg
		}

		b := img.Bounds()
		msg.img = img
		msg.width = b.Dx()
		msg.height = b.Dy()
		msg.rec = &stored
		return msg
	}
}

// saveCurrent persists the boxes of the loaded image. With quit set the
// program exits once the save succeeds.
func (m Model) saveCurrent(quit bool) tea.Cmd {
	name, rec, err := m.session.SavePayload()
	if errors.Is(err, common.ErrNoImage) && quit {
		return tea.Quit
	}
	store := m.store

	return func() tea.Msg {
		if err != nil {
			return savedMsg{err: err, quit: quit}
		}
		if store == nil {
			return savedMsg{err: errNotConfigured, quit: quit}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := store.SaveAnnotations(ctx, name, rec); err != nil {
			return savedMsg{err: err, image: name, quit: quit}
		}
		return savedMsg{image: name, boxes: len(rec.Boxes), quit: quit}
	}
}

// predictCurrent asks the configured source for detections on the loaded
// image.
func (m Model) predictCurrent(replace bool) tea.Cmd {
	name := m.session.ImageID()
	predictor, library, timeout := m.predictor, m.library, m.config.PredictTimeout

	return func() tea.Msg {
		msg := predictionsMsg{image: name, replace: replace}
		if predictor == nil {
			msg.err = errors.New("no prediction source configured")
			return msg
		}
		if library == nil {
			msg.err = errNotConfigured
			return msg
		}
		path, err := library.Path(name)
		if err != nil {
			msg.err = err
			return msg
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg.batch, msg.err = predictor.Predict(ctx, path)
		return msg
	}
}

// addClass appends a class.
func (m Model) addClass(name string) tea.Cmd {
	store := m.store
	return m.classCmd("added "+name, -1, func(ctx context.Context) ([]model.Class, error) {
		return store.AddClass(ctx, name)
	})
}

// renameClass renames the class at index.
func (m Model) renameClass(index int, name string) tea.Cmd {
	store := m.store
	return m.classCmd("renamed to "+name, -1, func(ctx context.Context) ([]model.Class, error) {
		return store.RenameClass(ctx, index, name)
	})
}

// updateInstructions replaces the instructions of the class at index.
func (m Model) updateInstructions(index int, text string) tea.Cmd {
	store := m.store
	return m.classCmd("instructions updated", -1, func(ctx context.Context) ([]model.Class, error) {
		if err := store.UpdateClassInstructions(ctx, index, text); err != nil {
			return nil, err
		}
		return store.GetClasses(ctx)
	})
}

// deleteClass removes the class at index after an automatic checkpoint.
// The current image is saved first so its boxes are reindexed with the rest.
func (m Model) deleteClass(index int) tea.Cmd {
	store, checkpoints := m.store, m.checkpoints
	name := model.ClassName(m.session.Classes(), index)
	current, rec, snapErr := m.session.SavePayload()
	return m.classCmd("deleted "+name, index, func(ctx context.Context) ([]model.Class, error) {
		if snapErr == nil {
			if err := store.SaveAnnotations(ctx, current, rec); err != nil {
				return nil, fmt.Errorf("failed to save %s before delete: %w", current, err)
			}
		}
		if checkpoints != nil {
			if err := checkpoints.AutoCheckpoint(ctx, "class-delete"); err != nil {
				return nil, fmt.Errorf("failed to checkpoint before delete: %w", err)
			}
		}
		return store.DeleteClass(ctx, index)
	})
}

// seedDefaultClasses adds the default classes that are not present yet.
func (m Model) seedDefaultClasses() tea.Cmd {
	store := m.store
	return m.classCmd("default classes added", -1, func(ctx context.Context) ([]model.Class, error) {
		classes, err := store.GetClasses(ctx)
		if err != nil && !errors.Is(err, common.ErrMalformedPayload) {
			return nil, err
		}
		for _, c := range model.DefaultClasses() {
			if model.FindClass(classes, c.Name) >= 0 {
				continue
			}
			if classes, err = store.AddClass(ctx, c.Name); err != nil {
				return nil, err
			}
			if err := store.UpdateClassInstructions(ctx, len(classes)-1, c.Instructions); err != nil {
				return nil, err
			}
		}
		return store.GetClasses(ctx)
	})
}

func (m Model) classCmd(action string, deleted int, fn func(ctx context.Context) ([]model.Class, error)) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if store == nil {
			return classesChangedMsg{err: errNotConfigured, deleted: -1}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		classes, err := fn(ctx)
		if err != nil {
			return classesChangedMsg{err: err, deleted: -1}
		}
		return classesChangedMsg{action: action, classes: classes, deleted: deleted}
	}
}

// cycleStatus advances the review status of an image.
func (m Model) cycleStatus(name string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if store == nil {
			return statusChangedMsg{err: errNotConfigured, image: name}
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		img, err := store.GetImage(ctx, name)
		if err != nil {
			return statusChangedMsg{err: err, image: name}
		}
		next := img.Status.Next()
		if err := store.SetFileStatus(ctx, name, next); err != nil {
			return statusChangedMsg{err: err, image: name}
		}
		return statusChangedMsg{image: name, status: next}
	}
}
