// Package store holds the canonical CV document of one editing session and
// the only API allowed to change it.
//
// State is replaced copy-on-write: every mutation builds new collection
// slices, so snapshots handed out earlier never change underneath their
// holders. Each effective mutation bumps Version and notifies subscribers
// exactly once with the settled document. Updates and removals that name an
// unknown id change nothing and notify nobody.
package store

import (
	"sync"

	"cv-builder/cv/model"
)

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpUpdatePersonal   Op = "personal.update"
	OpAddExperience    Op = "experience.add"
	OpUpdateExperience Op = "experience.update"
	OpRemoveExperience Op = "experience.remove"
	OpAddEducation     Op = "education.add"
	OpUpdateEducation  Op = "education.update"
	OpRemoveEducation  Op = "education.remove"
	OpAddSkill         Op = "skill.add"
	OpUpdateSkill      Op = "skill.update"
	OpRemoveSkill      Op = "skill.remove"
)

// Change is delivered to subscribers after a mutation has settled.
type Change struct {
	Op       Op
	EntityID string
	Version  uint64
	Document model.Document
}

// Store owns one Document. It is safe for concurrent use; callers are serialised.
type Store struct {
	mu      sync.Mutex
	ids     IDGenerator
	doc     model.Document
	version uint64

	// notifyMu is taken before mu is released so changes reach subscribers in version order.
	notifyMu sync.Mutex
	subsMu   sync.RWMutex
	subs     map[uint64]func(Change)
	nextSub  uint64
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the default UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithDocument seeds the store, e.g. from a saved or imported CV.
// Entities without an id, or repeating an id already used in their collection, are given a new one.
func WithDocument(doc model.Document) Option {
	return func(s *Store) {
		s.doc = doc.Normalize()
	}
}

// New constructs a Store holding an empty document unless seeded.
func New(opts ...Option) *Store {
	s := &Store{
		ids:  UUIDGenerator{},
		doc:  model.New(),
		subs: make(map[uint64]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.assignMissingIDs()
	return s
}

func (s *Store) assignMissingIDs() {
	s.doc.Experience = uniqueIDs(s.doc.Experience, s.ids, func(e *model.Experience) *string { return &e.ID })
	s.doc.Education = uniqueIDs(s.doc.Education, s.ids, func(e *model.Education) *string { return &e.ID })
	s.doc.Skills = uniqueIDs(s.doc.Skills, s.ids, func(sk *model.Skill) *string { return &sk.ID })
}

// uniqueIDs gives a fresh id to every item whose id is empty or already taken earlier in items.
func uniqueIDs[T any](items []T, ids IDGenerator, idOf func(*T) *string) []T {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		id := idOf(&items[i])
		if _, dup := seen[*id]; *id == "" || dup {
			*id = ids.NewID()
		}
		seen[*id] = struct{}{}
	}
	return items
}

// CreateID returns a new identifier from the store's generator.
func (s *Store) CreateID() string {
	return s.ids.NewID()
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// State returns a deep copy of the document and the version it is at, read together.
func (s *Store) State() (model.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.version
}

// Version returns the number of effective mutations applied so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn for every future Change and returns a function that removes it.
// fn runs on the mutating goroutine after the store lock is released, one change at a
// time in version order. It may read the store but must not mutate it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// UpdatePersonal merges patch into the personal info.
func (s *Store) UpdatePersonal(patch model.PersonalPatch) {
	s.mutate(OpUpdatePersonal, "", func(doc *model.Document) bool {
		doc.Personal = patch.Apply(doc.Personal)
		return true
	})
}

// AddExperience appends a new experience and returns its id.
func (s *Store) AddExperience(in model.ExperienceInput) string {
	id := s.ids.NewID()
	s.mutate(OpAddExperience, id, func(doc *model.Document) bool {
		doc.Experience = appendCopy(doc.Experience, in.WithID(id))
		return true
	})
	return id
}

// UpdateExperience merges patch into the experience with id. It reports whether id matched.
func (s *Store) UpdateExperience(id string, patch model.ExperiencePatch) bool {
	ok, _ := s.UpdateExperienceIf(id, patch, nil)
	return ok
}

// UpdateExperienceIf is UpdateExperience guarded by check, which sees the stored
// entity under the store lock and vetoes the update by returning an error.
// check must not call back into the store.
func (s *Store) UpdateExperienceIf(id string, patch model.ExperiencePatch, check func(model.Experience) error) (bool, error) {
	var err error
	ok := s.mutate(OpUpdateExperience, id, func(doc *model.Document) bool {
		if check != nil {
			for _, e := range doc.Experience {
				if e.ID == id {
					err = check(e)
					break
				}
			}
			if err != nil {
				return false
			}
		}
		next, ok := updateByID(doc.Experience, id, experienceID, patch.Apply)
		doc.Experience = next
		return ok
	})
	return ok, err
}

// RemoveExperience deletes the experience with id. It reports whether id matched.
func (s *Store) RemoveExperience(id string) bool {
	return s.mutate(OpRemoveExperience, id, func(doc *model.Document) bool {
		next, ok := removeByID(doc.Experience, id, experienceID)
		doc.Experience = next
		return ok
	})
}

// AddEducation appends a new education entry and returns its id.
func (s *Store) AddEducation(in model.EducationInput) string {
	id := s.ids.NewID()
	s.mutate(OpAddEducation, id, func(doc *model.Document) bool {
		doc.Education = appendCopy(doc.Education, in.WithID(id))
		return true
	})
	return id
}

// UpdateEducation merges patch into the education entry with id.
func (s *Store) UpdateEducation(id string, patch model.EducationPatch) bool {
	return s.mutate(OpUpdateEducation, id, func(doc *model.Document) bool {
		next, ok := updateByID(doc.Education, id, educationID, patch.Apply)
		doc.Education = next
		return ok
	})
}

// RemoveEducation deletes the education entry with id.
func (s *Store) RemoveEducation(id string) bool {
	return s.mutate(OpRemoveEducation, id, func(doc *model.Document) bool {
		next, ok := removeByID(doc.Education, id, educationID)
		doc.Education = next
		return ok
	})
}

// AddSkill appends a new skill, clamping its level, and returns its id.
func (s *Store) AddSkill(in model.SkillInput) string {
	id := s.ids.NewID()
	s.mutate(OpAddSkill, id, func(doc *model.Document) bool {
		doc.Skills = appendCopy(doc.Skills, in.WithID(id))
		return true
	})
	return id
}

// UpdateSkill merges patch into the skill with id, clamping any new level.
func (s *Store) UpdateSkill(id string, patch model.SkillPatch) bool {
	return s.mutate(OpUpdateSkill, id, func(doc *model.Document) bool {
		next, ok := updateByID(doc.Skills, id, skillID, patch.Apply)
		doc.Skills = next
		return ok
	})
}

// RemoveSkill deletes the skill with id.
func (s *Store) RemoveSkill(id string) bool {
	return s.mutate(OpRemoveSkill, id, func(doc *model.Document) bool {
		next, ok := removeByID(doc.Skills, id, skillID)
		doc.Skills = next
		return ok
	})
}

// mutate applies fn to a shallow copy of the document and commits it when fn reports a change.
// fn must replace, not modify, any collection it touches.
func (s *Store) mutate(op Op, entityID string, fn func(doc *model.Document) bool) bool {
	s.mu.Lock()
	next := s.doc
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.doc = next
	s.version++
	change := Change{
		Op:       op,
		EntityID: entityID,
		Version:  s.version,
		Document: s.doc.Clone(),
	}
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.notify(change)
	s.notifyMu.Unlock()
	return true
}

func (s *Store) notify(change Change) {
	s.subsMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

func experienceID(e model.Experience) string { return e.ID }
func educationID(e model.Education) string   { return e.ID }
func skillID(s model.Skill) string           { return s.ID }

func appendCopy[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item)
}

func updateByID[T any](items []T, id string, idOf func(T) string, apply func(T) T) ([]T, bool) {
	for i := range items {
		if idOf(items[i]) != id {
			continue
		}
		out := make([]T, len(items))
		copy(out, items)
		out[i] = apply(items[i])
		return out, true
	}
	return items, false
}

func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	for i := range items {
		if idOf(items[i]) != id {
			continue
		}
		out := make([]T, 0, len(items)-1)
		out = append(out, items[:i]...)
		out = append(out, items[i+1:]...)
		return out, true
	}
	return items, false
}
