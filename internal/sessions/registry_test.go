package sessions

import (
	"errors"
	"testing"
	"time"

	"cv-builder/cv/editor"
	"cv-builder/cv/model"
	"cv-builder/cv/render"
)

func TestRegistryOwnership(t *testing.T) {
	reg := NewRegistry(time.Hour, render.Minimal)
	t.Cleanup(reg.Close)

	id, sess, err := reg.Create("guest:a", CreateOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Template() != render.Minimal {
		t.Fatalf("expected default template minimal, got %s", sess.Template())
	}

	if _, err := reg.Get("guest:b", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := reg.Delete("guest:b", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected foreign delete to fail, got %v", err)
	}
	if got, err := reg.Get("guest:a", id); err != nil || got != sess {
		t.Fatalf("expected owner to get session, err=%v", err)
	}

	if err := reg.Delete("guest:a", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}

func TestRegistryCreateValidates(t *testing.T) {
	reg := NewRegistry(0, "unknown")
	t.Cleanup(reg.Close)

	if reg.DefaultTemplate() != render.DefaultTemplate {
		t.Fatalf("expected fallback template, got %s", reg.DefaultTemplate())
	}
	if _, _, err := reg.Create("", CreateOptions{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := reg.Create("guest:a", CreateOptions{Template: "brutalist"}); !errors.Is(err, render.ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestRegistrySeedsDocument(t *testing.T) {
	reg := NewRegistry(time.Hour, render.Modern)
	t.Cleanup(reg.Close)

	doc := model.New()
	doc.Personal.FirstName = "Ada"
	doc.Skills = append(doc.Skills, model.Skill{Name: "Go", Level: 11})

	id, sess, err := reg.Create("guest:a", CreateOptions{Document: &doc, CVID: "cv-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snap := sess.Store().Snapshot()
	if snap.Personal.FirstName != "Ada" {
		t.Fatalf("expected seeded personal info, got %+v", snap.Personal)
	}
	if snap.Skills[0].ID == "" || snap.Skills[0].Level != model.MaxSkillLevel {
		t.Fatalf("expected normalized skill, got %+v", snap.Skills[0])
	}

	info, err := reg.Info("guest:a", id)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.CVID != "cv-1" {
		t.Fatalf("expected binding cv-1, got %q", info.CVID)
	}
	if err := reg.Bind("guest:a", id, "cv-2"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if info, _ := reg.Info("guest:a", id); info.CVID != "cv-2" {
		t.Fatalf("expected rebinding, got %q", info.CVID)
	}
}

func TestRegistrySweepDropsIdleSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(time.Hour, render.Modern)
	reg.now = func() time.Time { return now }
	t.Cleanup(reg.Close)

	idle, idleSess, _ := reg.Create("guest:a", CreateOptions{})
	busy, _, _ := reg.Create("guest:a", CreateOptions{})

	events := 0
	idleSess.Subscribe(func(editor.Event) { events++ })

	now = now.Add(45 * time.Minute)
	if _, err := reg.Get("guest:a", busy); err != nil {
		t.Fatalf("touch busy: %v", err)
	}
	now = now.Add(30 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if _, err := reg.Get("guest:a", idle); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected idle session gone, got %v", err)
	}
	if _, err := reg.Get("guest:a", busy); err != nil {
		t.Fatalf("expected busy session kept: %v", err)
	}

	// A closed session no longer notifies.
	idleSess.Store().AddSkill(model.SkillInput{Name: "Go", Level: 3})
	if events != 0 {
		t.Fatalf("expected no events after expiry, got %d", events)
	}
}

func TestRegistryClaim(t *testing.T) {
	reg := NewRegistry(time.Hour, render.Modern)
	t.Cleanup(reg.Close)

	a, _, _ := reg.Create("guest:g1", CreateOptions{})
	reg.Create("guest:g2", CreateOptions{})

	if n := reg.Claim("guest:g1", "google:42"); n != 1 {
		t.Fatalf("expected one claimed session, got %d", n)
	}
	if _, err := reg.Get("google:42", a); err != nil {
		t.Fatalf("expected claimed session for user: %v", err)
	}
	if _, err := reg.Get("guest:g1", a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected guest to lose access, got %v", err)
	}
	if n := reg.Claim("google:42", "google:42"); n != 0 {
		t.Fatalf("expected self-claim to be a no-op, got %d", n)
	}
}
