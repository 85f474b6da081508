package exports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/storage/object/local"
)

type fakePDF struct {
	calls int
	html  []byte
	err   error
}

func (f *fakePDF) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	f.calls++
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

type testEnv struct {
	router   *gin.Engine
	registry *sessions.Registry
	svc      *Service
	pdf      *fakePDF
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := sessions.NewRegistry(time.Hour, render.Modern)
	t.Cleanup(reg.Close)
	pdf := &fakePDF{}
	svc := &Service{
		Repo:     NewMemoryRepo(),
		Store:    local.New(t.TempDir()),
		Sessions: reg,
		PDF:      pdf,
	}

	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return testEnv{router: r, registry: reg, svc: svc, pdf: pdf}
}

func (e testEnv) do(t *testing.T, method, path, guest string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Guest-Id", guest)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) seedSession(t *testing.T, guest string) string {
	t.Helper()
	id, sess, err := e.registry.Create(middleware.GuestPrefix+guest, sessions.CreateOptions{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	first, last := "Ada", "Lovelace"
	sess.Store().UpdatePersonal(model.PersonalPatch{FirstName: &first, LastName: &last})
	sess.Store().AddSkill(model.SkillInput{Name: "Analytical Engine", Level: 5})
	return id
}

func decodeExport(t *testing.T, rec *httptest.ResponseRecorder) exportResponse {
	t.Helper()
	var resp exportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode export: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestExportHTMLAndDownload(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.seedSession(t, "g1")

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/exports", "g1", []byte(`{"format":"html","templateId":"minimal"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	exp := decodeExport(t, rec)
	if exp.FileName != "ada-lovelace-minimal.html" || exp.Version != 2 || exp.SizeBytes == 0 {
		t.Fatalf("unexpected export %+v", exp)
	}
	if exp.DownloadURL != "/api/v1/exports/"+exp.ExportID+"/download" {
		t.Fatalf("unexpected download url %q", exp.DownloadURL)
	}

	rec = env.do(t, http.MethodGet, exp.DownloadURL, "g1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="ada-lovelace-minimal.html"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Ada Lovelace") || !strings.Contains(rec.Body.String(), "Analytical Engine") {
		t.Fatalf("expected rendered cv in download")
	}
}

func TestExportDownloadForeignOwner(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.seedSession(t, "g1")

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/exports", "g1", []byte(`{"format":"json"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	exp := decodeExport(t, rec)

	rec = env.do(t, http.MethodGet, exp.DownloadURL, "intruder", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "" {
		t.Fatalf("expected no content disposition, got %q", cd)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/exports/missing/download", "g1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing export: expected 404, got %d", rec.Code)
	}
}

func TestExportJSONUsesCommittedDocument(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.seedSession(t, "g1")
	sess, err := env.registry.Get(middleware.GuestPrefix+"g1", sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if err := sess.BeginEdit(); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := sess.SetDraftField(model.FieldFirstName, "Draft"); err != nil {
		t.Fatalf("set draft: %v", err)
	}

	exp, err := env.svc.ExportSession(context.Background(), middleware.GuestPrefix+"g1", sessionID, Request{Format: FormatJSON})
	if err != nil {
		t.Fatalf("ExportSession: %v", err)
	}
	if exp.TemplateID != "modern" || exp.ContentType != "application/json" {
		t.Fatalf("unexpected export %+v", exp)
	}

	_, rc, err := env.svc.Open(context.Background(), middleware.GuestPrefix+"g1", exp.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	var doc model.Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Personal.FirstName != "Ada" || len(doc.Skills) != 1 {
		t.Fatalf("expected committed document, got %+v", doc.Personal)
	}
}

func TestExportPDF(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.seedSession(t, "g1")

	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/exports", "g1", []byte(`{"format":"PDF","templateId":"creative"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	exp := decodeExport(t, rec)
	if exp.Format != "pdf" || exp.ContentType != "application/pdf" || exp.FileName != "ada-lovelace-creative.pdf" {
		t.Fatalf("unexpected export %+v", exp)
	}
	if env.pdf.calls != 1 || !bytes.Contains(env.pdf.html, []byte("<!DOCTYPE html>")) {
		t.Fatalf("expected renderer to receive a full page, calls=%d", env.pdf.calls)
	}

	env.pdf.err = errors.New("chrome crashed")
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/exports", "g1", []byte(`{"format":"pdf"}`)); rec.Code != http.StatusInternalServerError {
		t.Fatalf("renderer failure: expected 500, got %d", rec.Code)
	}

	env.svc.PDF = nil
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/exports", "g1", []byte(`{"format":"pdf"}`)); rec.Code != http.StatusNotImplemented {
		t.Fatalf("no renderer: expected 501, got %d", rec.Code)
	}
}

func TestExportRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.seedSession(t, "g1")
	path := "/api/v1/sessions/" + sessionID + "/exports"

	cases := []struct {
		name   string
		guest  string
		path   string
		body   string
		status int
	}{
		{name: "missing format", guest: "g1", path: path, body: `{}`, status: http.StatusBadRequest},
		{name: "unknown format", guest: "g1", path: path, body: `{"format":"docx"}`, status: http.StatusBadRequest},
		{name: "unknown template", guest: "g1", path: path, body: `{"format":"html","templateId":"baroque"}`, status: http.StatusBadRequest},
		{name: "foreign session", guest: "other", path: path, body: `{"format":"html"}`, status: http.StatusNotFound},
		{name: "missing session", guest: "g1", path: "/api/v1/sessions/nope/exports", body: `{"format":"html"}`, status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tc.path, tc.guest, []byte(tc.body))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestFileNameFor(t *testing.T) {
	doc := model.Document{Personal: model.PersonalInfo{FirstName: "  José ", LastName: "O'Neil"}}
	if got := fileNameFor(doc, render.Modern, FormatPDF); got != "jos-o-neil-modern.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := fileNameFor(model.Document{}, render.Minimal, FormatJSON); got != "cv-minimal.json" {
		t.Fatalf("unexpected fallback file name %q", got)
	}
}
