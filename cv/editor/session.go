package editor

import (
	"io"
	"sync"

	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/cv/store"
)

// Reason says why a session event fired.
type Reason string

const (
	ReasonChange   Reason = "change"
	ReasonTemplate Reason = "template"
	ReasonBegin    Reason = "edit.begin"
	ReasonDraft    Reason = "edit.draft"
	ReasonCancel   Reason = "edit.cancel"
)

// Event tells listeners that the preview of a session is out of date.
type Event struct {
	Reason   Reason
	Op       store.Op
	EntityID string
	// Version is the store version the event was raised at.
	Version  uint64
	Template render.TemplateID
	Editing  bool
}

// Session is one editing session: a store, its edit overlay and the selected template.
type Session struct {
	store   *store.Store
	overlay *Overlay

	mu       sync.RWMutex
	template render.TemplateID

	listenersMu sync.RWMutex
	listeners   map[uint64]func(Event)
	nextID      uint64

	stopStore func()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStore uses s instead of a fresh empty store.
func WithStore(s *store.Store) SessionOption {
	return func(sess *Session) {
		if s != nil {
			sess.store = s
		}
	}
}

// WithTemplate selects the initial template. Unknown ids fall back to the default.
func WithTemplate(id render.TemplateID) SessionOption {
	return func(sess *Session) {
		if _, err := render.Lookup(id); err == nil {
			sess.template = id
		}
	}
}

// NewSession builds a session in viewing mode.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		template:  render.DefaultTemplate,
		listeners: make(map[uint64]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = store.New()
	}
	s.overlay = NewOverlay(s.store)
	s.stopStore = s.store.Subscribe(func(c store.Change) {
		s.emit(Event{Reason: ReasonChange, Op: c.Op, EntityID: c.EntityID, Version: c.Version})
	})
	return s
}

// Store returns the session's document store.
func (s *Session) Store() *store.Store { return s.store }

// Overlay returns the session's edit overlay.
func (s *Session) Overlay() *Overlay { return s.overlay }

// Template returns the selected template.
func (s *Session) Template() render.TemplateID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// SetTemplate switches the selected template. The document is unaffected.
func (s *Session) SetTemplate(id render.TemplateID) error {
	if _, err := render.Lookup(id); err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.template != id
	s.template = id
	s.mu.Unlock()
	if changed {
		s.emit(Event{Reason: ReasonTemplate})
	}
	return nil
}

// BeginEdit enters edit mode.
func (s *Session) BeginEdit() error {
	if err := s.overlay.Begin(); err != nil {
		return err
	}
	s.emit(Event{Reason: ReasonBegin})
	return nil
}

// SetDraftField edits one draft field.
func (s *Session) SetDraftField(field model.PersonalField, value string) error {
	if err := s.overlay.SetField(field, value); err != nil {
		return err
	}
	s.emit(Event{Reason: ReasonDraft})
	return nil
}

// SaveEdit commits the draft. Listeners hear about it through the store change.
func (s *Session) SaveEdit() error {
	return s.overlay.Save()
}

// CancelEdit discards the draft.
func (s *Session) CancelEdit() error {
	if err := s.overlay.Cancel(); err != nil {
		return err
	}
	s.emit(Event{Reason: ReasonCancel})
	return nil
}

// Input assembles the render input for template id from the current state.
// While editing, personal details come from the draft and collections from the store.
func (s *Session) Input(id render.TemplateID) render.Input {
	in := render.Input{
		Template: id,
		Document: s.store.Snapshot(),
	}
	if draft, ok := s.overlay.Draft(); ok {
		in.Editing = true
		in.Draft = &draft
		in.OnFieldChange = func(f model.PersonalField, v string) {
			_ = s.SetDraftField(f, v)
		}
	}
	return in
}

// Preview renders the selected template.
func (s *Session) Preview() (render.Page, error) {
	return render.Render(s.Input(s.Template()))
}

// PreviewWith renders template id without changing the selection.
func (s *Session) PreviewWith(id render.TemplateID) (render.Page, error) {
	return render.Render(s.Input(id))
}

// PreviewHTML writes the HTML preview for template id.
func (s *Session) PreviewHTML(w io.Writer, id render.TemplateID) error {
	return render.RenderHTML(w, s.Input(id))
}

// Subscribe registers fn for every future Event and returns its unsubscribe function.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// Close detaches the session from its store and drops every listener.
func (s *Session) Close() {
	s.stopStore()
	s.listenersMu.Lock()
	s.listeners = make(map[uint64]func(Event))
	s.listenersMu.Unlock()
}

func (s *Session) emit(ev Event) {
	if ev.Version == 0 {
		ev.Version = s.store.Version()
	}
	ev.Template = s.Template()
	ev.Editing = s.overlay.Editing()

	s.listenersMu.RLock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
