// Package editor layers an in-progress edit of the personal details on top of
// a store, and ties a store, its overlay and a template choice into a Session.
package editor

import (
	"errors"
	"sync"

	"cv-builder/cv/model"
	"cv-builder/cv/store"
)

var (
	ErrAlreadyEditing = errors.New("already editing")
	ErrNotEditing     = errors.New("not editing")
	ErrUnknownField   = errors.New("unknown personal field")
)

// Mode is the overlay state.
type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeEditing Mode = "editing"
)

// Overlay holds a draft copy of PersonalInfo while editing. The draft is
// committed to the store in one update on Save and dropped on Cancel.
type Overlay struct {
	store *store.Store

	// commitMu orders Begin after any Save still writing to the store. Readers only take mu.
	commitMu sync.Mutex
	mu       sync.Mutex
	mode  Mode
	draft model.PersonalInfo
}

// NewOverlay returns an overlay in viewing mode.
func NewOverlay(s *store.Store) *Overlay {
	return &Overlay{store: s, mode: ModeViewing}
}

// Mode returns the current state.
func (o *Overlay) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Editing reports whether an edit is in progress.
func (o *Overlay) Editing() bool {
	return o.Mode() == ModeEditing
}

// Draft returns the draft and true while editing.
func (o *Overlay) Draft() (model.PersonalInfo, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != ModeEditing {
		return model.PersonalInfo{}, false
	}
	return o.draft, true
}

// Begin copies the stored personal details into a fresh draft.
func (o *Overlay) Begin() error {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	personal := o.store.Snapshot().Personal

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode == ModeEditing {
		return ErrAlreadyEditing
	}
	o.mode = ModeEditing
	o.draft = personal
	return nil
}

// SetField changes one draft field. The store is not touched.
func (o *Overlay) SetField(field model.PersonalField, value string) error {
	if _, err := model.ParsePersonalField(string(field)); err != nil {
		return ErrUnknownField
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != ModeEditing {
		return ErrNotEditing
	}
	o.draft = o.draft.With(field, value)
	return nil
}

// Save writes the whole draft to the store and returns to viewing mode.
func (o *Overlay) Save() error {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()

	o.mu.Lock()
	if o.mode != ModeEditing {
		o.mu.Unlock()
		return ErrNotEditing
	}
	draft := o.draft
	o.mode = ModeViewing
	o.draft = model.PersonalInfo{}
	o.mu.Unlock()

	// Store subscribers may read the overlay, so the update runs unlocked.
	o.store.UpdatePersonal(model.PersonalPatchFrom(draft))
	return nil
}

// Cancel drops the draft and returns to viewing mode.
func (o *Overlay) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != ModeEditing {
		return ErrNotEditing
	}
	o.mode = ModeViewing
	o.draft = model.PersonalInfo{}
	return nil
}
