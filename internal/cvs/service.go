package cvs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cv-builder/cv/editor"
	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/cv/schema"
	"cv-builder/cv/store"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/telemetry"
)

const (
	untitledCV     = "Untitled CV"
	maxTitleLength = 200
)

// Service contains business logic for saved CVs.
type Service struct {
	Repo     Repo
	Sessions *sessions.Registry
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// SaveSession persists the current document of a session. The first save creates
// a CV and binds it to the session; later saves update that CV. The second return
// value reports whether a CV was created.
func (s *Service) SaveSession(ctx context.Context, userID, sessionID, title string) (SavedCV, bool, error) {
	if userID == "" || sessionID == "" {
		return SavedCV{}, false, ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		return SavedCV{}, false, ErrInvalidInput
	}

	sess, err := s.Sessions.Get(userID, sessionID)
	if err != nil {
		return SavedCV{}, false, err
	}
	info, err := s.Sessions.Info(userID, sessionID)
	if err != nil {
		return SavedCV{}, false, err
	}
	doc, version := sess.Store().State()
	now := s.now()

	if info.CVID != "" {
		existing, err := s.Repo.GetByID(ctx, userID, info.CVID)
		switch {
		case err == nil:
			if title != "" {
				existing.Title = title
			}
			existing.TemplateID = string(sess.Template())
			existing.Document = doc
			existing.Version = version
			existing.UpdatedAt = now
			if err := s.Repo.Update(ctx, existing); err != nil {
				return SavedCV{}, false, err
			}
			telemetry.Info("cv.saved", map[string]any{
				"cv_id":      existing.ID,
				"session_id": sessionID,
				"user_id":    userID,
				"version":    version,
			})
			return existing, false, nil
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			// The bound CV is gone; fall through and save a fresh copy.
		default:
			return SavedCV{}, false, err
		}
	}

	cv := SavedCV{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      titleFor(title, doc),
		TemplateID: string(sess.Template()),
		Document:   doc,
		Version:    version,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, cv); err != nil {
		return SavedCV{}, false, err
	}
	if err := s.Sessions.Bind(userID, sessionID, cv.ID); err != nil {
		return SavedCV{}, false, err
	}
	telemetry.Info("cv.created", map[string]any{
		"cv_id":      cv.ID,
		"session_id": sessionID,
		"user_id":    userID,
		"version":    version,
	})
	return cv, true, nil
}

// Import validates raw CV JSON and saves it as a new CV.
func (s *Service) Import(ctx context.Context, userID string, raw []byte, title, templateID string) (SavedCV, error) {
	if userID == "" {
		return SavedCV{}, ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		return SavedCV{}, ErrInvalidInput
	}

	tpl := s.Sessions.DefaultTemplate()
	if strings.TrimSpace(templateID) != "" {
		parsed, err := render.ParseTemplateID(templateID)
		if err != nil {
			return SavedCV{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		tpl = parsed
	}

	doc, err := schema.Decode(raw)
	if err != nil {
		return SavedCV{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	doc = assignIDs(doc)

	now := s.now()
	cv := SavedCV{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      titleFor(title, doc),
		TemplateID: string(tpl),
		Document:   doc,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, cv); err != nil {
		return SavedCV{}, err
	}
	telemetry.Info("cv.imported", map[string]any{
		"cv_id":      cv.ID,
		"user_id":    userID,
		"experience": len(doc.Experience),
		"education":  len(doc.Education),
		"skills":     len(doc.Skills),
	})
	return cv, nil
}

// Open starts an editing session seeded from a saved CV and bound to it.
func (s *Service) Open(ctx context.Context, userID, cvID string) (string, *editor.Session, error) {
	cv, err := s.Get(ctx, userID, cvID)
	if err != nil {
		return "", nil, err
	}
	tpl := render.TemplateID(cv.TemplateID)
	if _, err := render.Lookup(tpl); err != nil {
		tpl = ""
	}
	return s.Sessions.Create(userID, sessions.CreateOptions{
		Template: tpl,
		Document: &cv.Document,
		CVID:     cv.ID,
	})
}

// Get returns a saved CV owned by userID.
func (s *Service) Get(ctx context.Context, userID, cvID string) (SavedCV, error) {
	if userID == "" || cvID == "" {
		return SavedCV{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, cvID)
}

// List returns saved CVs for a user.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]SavedCV, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete soft-deletes a saved CV.
func (s *Service) Delete(ctx context.Context, userID, cvID string) error {
	if userID == "" || cvID == "" {
		return ErrInvalidInput
	}
	return s.Repo.SoftDelete(ctx, userID, cvID, s.now())
}

// ClaimGuest moves a guest's CVs to the account they just logged in with.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if guestUserID == "" || authedUserID == "" || guestUserID == authedUserID {
		return 0, nil
	}
	return s.Repo.ClaimGuest(ctx, guestUserID, authedUserID)
}

func titleFor(title string, doc model.Document) string {
	if title != "" {
		return title
	}
	if name := doc.Personal.FullName(); name != "" {
		return name
	}
	return untitledCV
}

// assignIDs gives imported entities a fresh id where theirs is missing or
// repeated, so saved CVs always carry stable, distinct ids.
func assignIDs(doc model.Document) model.Document {
	return store.New(store.WithDocument(doc)).Snapshot()
}
