package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cv-builder/cv/editor"
	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/cv/store"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/telemetry"
)

// DefaultTTL is used when the registry is built without an idle timeout.
const DefaultTTL = 2 * time.Hour

// CreateOptions seeds a new session.
type CreateOptions struct {
	// Template defaults to the registry's default template when empty.
	Template render.TemplateID
	// Document seeds the store. Nil starts from an empty CV.
	Document *model.Document
	// CVID binds the session to a saved CV so later saves update it.
	CVID string
}

// Info describes a live session.
type Info struct {
	ID        string
	Owner     string
	CVID      string
	CreatedAt time.Time
	LastUsed  time.Time
}

type entry struct {
	session   *editor.Session
	info      Info
	stopStats func()
}

// Registry keeps the editing sessions of every user in memory. Sessions are
// private to their owner and are dropped after sitting idle for the TTL.
type Registry struct {
	mu       sync.Mutex
	items    map[string]*entry
	ttl      time.Duration
	template render.TemplateID
	now      func() time.Time
	newID    func() string
}

// NewRegistry builds a registry. Unknown default templates fall back to render.DefaultTemplate.
func NewRegistry(ttl time.Duration, defaultTemplate render.TemplateID) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if _, err := render.Lookup(defaultTemplate); err != nil {
		defaultTemplate = render.DefaultTemplate
	}
	return &Registry{
		items:    make(map[string]*entry),
		ttl:      ttl,
		template: defaultTemplate,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// DefaultTemplate is the template new sessions start with.
func (r *Registry) DefaultTemplate() render.TemplateID { return r.template }

// Create opens a session for owner.
func (r *Registry) Create(owner string, opts CreateOptions) (string, *editor.Session, error) {
	if owner == "" {
		return "", nil, ErrInvalidInput
	}
	tpl := opts.Template
	if tpl == "" {
		tpl = r.template
	}
	if _, err := render.Lookup(tpl); err != nil {
		return "", nil, err
	}

	storeOpts := []store.Option{}
	if opts.Document != nil {
		storeOpts = append(storeOpts, store.WithDocument(*opts.Document))
	}
	sess := editor.NewSession(
		editor.WithStore(store.New(storeOpts...)),
		editor.WithTemplate(tpl),
	)
	stopStats := sess.Store().Subscribe(func(c store.Change) {
		metrics.IncMutation(string(c.Op))
	})

	now := r.now()
	id := r.newID()
	r.mu.Lock()
	r.items[id] = &entry{
		session:   sess,
		stopStats: stopStats,
		info:      Info{ID: id, Owner: owner, CVID: opts.CVID, CreatedAt: now, LastUsed: now},
	}
	active := len(r.items)
	r.mu.Unlock()

	metrics.SetSessionsActive(active)
	telemetry.Info("session.created", map[string]any{
		"session_id": id,
		"user_id":    owner,
		"cv_id":      opts.CVID,
		"template":   string(tpl),
	})
	return id, sess, nil
}

// Get returns the session id owned by owner and marks it used.
func (r *Registry) Get(owner, id string) (*editor.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookupLocked(owner, id)
	if err != nil {
		return nil, err
	}
	e.info.LastUsed = r.now()
	return e.session, nil
}

// Info returns the metadata of a session owned by owner.
func (r *Registry) Info(owner, id string) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookupLocked(owner, id)
	if err != nil {
		return Info{}, err
	}
	return e.info, nil
}

// Bind records the saved CV a session writes to.
func (r *Registry) Bind(owner, id, cvID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookupLocked(owner, id)
	if err != nil {
		return err
	}
	e.info.CVID = cvID
	return nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(owner, id string) error {
	r.mu.Lock()
	e, err := r.lookupLocked(owner, id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	delete(r.items, id)
	active := len(r.items)
	r.mu.Unlock()

	e.close()
	metrics.SetSessionsActive(active)
	return nil
}

// Claim hands every session of fromOwner to toOwner, returning how many moved.
func (r *Registry) Claim(fromOwner, toOwner string) int {
	if fromOwner == "" || toOwner == "" || fromOwner == toOwner {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for _, e := range r.items {
		if e.info.Owner == fromOwner {
			e.info.Owner = toOwner
			moved++
		}
	}
	return moved
}

// Sweep closes sessions idle for longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*entry
	for id, e := range r.items {
		if e.info.LastUsed.Before(cutoff) {
			expired = append(expired, e)
			delete(r.items, id)
		}
	}
	active := len(r.items)
	r.mu.Unlock()

	for _, e := range expired {
		e.close()
		telemetry.Info("session.expired", map[string]any{
			"session_id": e.info.ID,
			"user_id":    e.info.Owner,
		})
	}
	metrics.SetSessionsActive(active)
	return len(expired)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range items {
		e.close()
	}
	metrics.SetSessionsActive(0)
}

func (r *Registry) lookupLocked(owner, id string) (*entry, error) {
	e, ok := r.items[id]
	if !ok || owner == "" || e.info.Owner != owner {
		return nil, ErrNotFound
	}
	return e, nil
}

func (e *entry) close() {
	e.stopStats()
	e.session.Close()
}
