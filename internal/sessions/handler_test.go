package sessions

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(time.Hour, render.Modern)
	t.Cleanup(reg.Close)

	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(reg).RegisterRoutes(r.Group("/api/v1"))
	return r, reg
}

func do(t *testing.T, r http.Handler, method, path, guest string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Guest-Id", guest)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func createSession(t *testing.T, r http.Handler, guest string) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/v1/sessions", guest, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeSession(t, rec).SessionID
}

func TestSessionCollectionsOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r, "g1")
	base := "/api/v1/sessions/" + id

	rec := do(t, r, http.MethodPost, base+"/experience", "g1", map[string]any{
		"title": "Engineer", "company": "Acme", "startDate": "2021-03", "current": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add experience: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var added struct {
		ID      string `json:"id"`
		Version uint64 `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode add: %v", err)
	}
	if added.ID == "" || added.Version != 1 {
		t.Fatalf("unexpected add response %+v", added)
	}

	rec = do(t, r, http.MethodPatch, base+"/experience/"+added.ID, "g1", map[string]any{"company": "Initech"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch experience: expected 200, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPatch, base+"/experience/missing", "g1", map[string]any{"company": "Nope"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("patch unknown id: expected 204, got %d", rec.Code)
	}
	rec = do(t, r, http.MethodDelete, base+"/skills/missing", "g1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete unknown id: expected 204, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPost, base+"/skills", "g1", map[string]any{"name": "Go", "level": 9})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add skill: expected 201, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, base, "g1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: expected 200, got %d", rec.Code)
	}
	got := decodeSession(t, rec)
	if got.Version != 3 {
		t.Fatalf("expected version 3 after three effective mutations, got %d", got.Version)
	}
	if len(got.Document.Experience) != 1 || got.Document.Experience[0].Company != "Initech" {
		t.Fatalf("unexpected experience %+v", got.Document.Experience)
	}
	if got.Document.Skills[0].Level != model.MaxSkillLevel {
		t.Fatalf("expected clamped level, got %d", got.Document.Skills[0].Level)
	}
}

func TestSessionFormValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r, "g1")
	base := "/api/v1/sessions/" + id

	rec := do(t, r, http.MethodPost, base+"/experience", "g1", map[string]any{"title": "Engineer"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error.Code != "validation_error" || body.Error.Details["company"] != "is required" {
		t.Fatalf("unexpected error body %s", rec.Body.String())
	}

	rec = do(t, r, http.MethodPatch, base+"/personal", "g1", map[string]any{"email": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", rec.Code)
	}

	rec = do(t, r, http.MethodPatch, base+"/personal", "g1", map[string]any{"firstName": "Ada"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decodeSession(t, rec).Document.Personal.FirstName != "Ada" {
		t.Fatalf("expected personal update applied")
	}
}

func TestSessionClearsEmailAndSavesNameOnlyDraft(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r, "g1")
	base := "/api/v1/sessions/" + id

	if rec := do(t, r, http.MethodPost, base+"/edit", "g1", nil); rec.Code != http.StatusOK {
		t.Fatalf("begin edit: expected 200, got %d", rec.Code)
	}
	do(t, r, http.MethodPatch, base+"/edit", "g1", map[string]any{"field": "firstName", "value": "Ada"})
	rec := do(t, r, http.MethodPost, base+"/edit/save", "g1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save name-only draft: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeSession(t, rec); got.Editing || got.Document.Personal.FirstName != "Ada" {
		t.Fatalf("expected draft committed, got %+v", got)
	}

	rec = do(t, r, http.MethodPatch, base+"/personal", "g1", map[string]any{"email": "ada@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set email: expected 200, got %d", rec.Code)
	}
	rec = do(t, r, http.MethodPatch, base+"/personal", "g1", map[string]any{"email": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear email: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeSession(t, rec); got.Document.Personal.Email != "" || got.Document.Personal.FirstName != "Ada" {
		t.Fatalf("expected email cleared, got %+v", got.Document.Personal)
	}
}

func TestSessionExperiencePatchKeepsPeriodValid(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r, "g1")
	base := "/api/v1/sessions/" + id

	rec := do(t, r, http.MethodPost, base+"/experience", "g1", map[string]any{
		"title": "Engineer", "company": "Acme", "startDate": "2021-03", "endDate": "2022-06",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add experience: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var added struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode add: %v", err)
	}
	path := base + "/experience/" + added.ID

	for _, tc := range []struct {
		name  string
		patch map[string]any
	}{
		{name: "end before start", patch: map[string]any{"endDate": "2020-12"}},
		{name: "start after end", patch: map[string]any{"startDate": "2023-01"}},
		{name: "not current without end", patch: map[string]any{"endDate": ""}},
	} {
		rec := do(t, r, http.MethodPatch, path, "g1", tc.patch)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}

	rec = do(t, r, http.MethodGet, base, "g1", nil)
	got := decodeSession(t, rec)
	if got.Version != 1 || got.Document.Experience[0].EndDate != "2022-06" {
		t.Fatalf("rejected patches must not change the document, got %+v", got)
	}

	rec = do(t, r, http.MethodPatch, path, "g1", map[string]any{"current": true, "endDate": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("switch to current: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSessionCreateReplacesDuplicateIDs(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/api/v1/sessions", "g1", map[string]any{
		"document": map[string]any{
			"skills": []any{
				map[string]any{"id": "x", "name": "Go", "level": 4},
				map[string]any{"id": "x", "name": "Python", "level": 3},
			},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeSession(t, rec)
	skills := created.Document.Skills
	if len(skills) != 2 || skills[0].ID != "x" || skills[1].ID == "x" {
		t.Fatalf("expected distinct ids, got %+v", skills)
	}

	base := "/api/v1/sessions/" + created.SessionID
	if rec := do(t, r, http.MethodDelete, base+"/skills/"+skills[1].ID, "g1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("remove second skill: expected 204, got %d", rec.Code)
	}
	got := decodeSession(t, do(t, r, http.MethodGet, base, "g1", nil))
	if len(got.Document.Skills) != 1 || got.Document.Skills[0].Name != "Go" {
		t.Fatalf("expected only the first skill left, got %+v", got.Document.Skills)
	}
}

func TestSessionIsPrivateToOwner(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r, "g1")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/sessions/" + id},
		{http.MethodGet, "/api/v1/sessions/" + id + "/preview"},
		{http.MethodDelete, "/api/v1/sessions/" + id},
		{http.MethodDelete, "/api/v1/sessions/" + id + "/skills/x"},
	} {
		rec := do(t, r, tc.method, tc.path, "intruder", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}

	rec := do(t, r, http.MethodDelete, "/api/v1/sessions/"+id, "g1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204, got %d", rec.Code)
	}
}

func TestSessionEditFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	id := createSession(t, r, "g1")
	base := "/api/v1/sessions/" + id

	if rec := do(t, r, http.MethodPatch, base+"/edit", "g1", map[string]any{"field": "firstName", "value": "x"}); rec.Code != http.StatusConflict {
		t.Fatalf("draft outside edit mode: expected 409, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/edit", "g1", nil); rec.Code != http.StatusOK {
		t.Fatalf("begin edit: expected 200, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, base+"/edit", "g1", nil); rec.Code != http.StatusConflict {
		t.Fatalf("second begin: expected 409, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPatch, base+"/edit", "g1", map[string]any{"field": "nickname", "value": "x"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rec.Code)
	}

	do(t, r, http.MethodPatch, base+"/edit", "g1", map[string]any{"field": "firstName", "value": "Grace"})
	rec := do(t, r, http.MethodPatch, base+"/edit", "g1", map[string]any{"field": "email", "value": "grace@"})
	got := decodeSession(t, rec)
	if !got.Editing || got.Draft == nil || got.Draft.FirstName != "Grace" {
		t.Fatalf("expected draft to carry edits, got %+v", got)
	}
	if got.Document.Personal.FirstName != "" {
		t.Fatalf("draft leaked into document: %+v", got.Document.Personal)
	}

	rec = do(t, r, http.MethodGet, base+"/preview.json", "g1", nil)
	var page pageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if !page.Editing || page.Header.Name != "Grace" || !page.Header.FirstName.Editable {
		t.Fatalf("expected editable preview of the draft, got %+v", page.Header)
	}

	if rec := do(t, r, http.MethodPost, base+"/edit/save", "g1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("save with bad email: expected 400, got %d", rec.Code)
	}
	do(t, r, http.MethodPatch, base+"/edit", "g1", map[string]any{"field": "email", "value": "grace@example.com"})
	rec = do(t, r, http.MethodPost, base+"/edit/save", "g1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got = decodeSession(t, rec)
	if got.Editing || got.Document.Personal.Email != "grace@example.com" || got.Version != 1 {
		t.Fatalf("expected committed draft in one update, got %+v", got)
	}

	if rec := do(t, r, http.MethodPost, base+"/edit/cancel", "g1", nil); rec.Code != http.StatusConflict {
		t.Fatalf("cancel outside edit mode: expected 409, got %d", rec.Code)
	}
}

func TestSessionPreviewTemplates(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/api/v1/sessions", "g1", map[string]any{
		"templateId": "creative",
		"document": map[string]any{
			"personal":   map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
			"experience": []any{map[string]any{"title": "Analyst", "company": "Engine Co", "startDate": "1843-01", "current": true}},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create seeded session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeSession(t, rec)
	if created.TemplateID != render.Creative || created.Document.Experience[0].ID == "" {
		t.Fatalf("unexpected seeded session %+v", created)
	}
	base := "/api/v1/sessions/" + created.SessionID

	rec = do(t, r, http.MethodGet, base+"/preview", "g1", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("preview: got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Ada Lovelace") || !strings.Contains(html, "Present") {
		t.Fatalf("preview missing data: %s", html)
	}

	if rec := do(t, r, http.MethodGet, base+"/preview?template=brutalist", "g1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown template: expected 400, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPut, base+"/template", "g1", map[string]any{"templateId": "brutalist"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown template switch: expected 400, got %d", rec.Code)
	}
	rec = do(t, r, http.MethodPut, base+"/template", "g1", map[string]any{"templateId": "minimal"})
	if rec.Code != http.StatusOK || decodeSession(t, rec).TemplateID != render.Minimal {
		t.Fatalf("template switch failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionCreateRejectsInvalidDocument(t *testing.T) {
	r, reg := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/api/v1/sessions", "g1", map[string]any{
		"document": map[string]any{"skills": []any{map[string]any{"level": 3}}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected no session created, got %d", reg.Len())
	}
}

func TestSessionPreviewStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(time.Hour, render.Modern)
	t.Cleanup(reg.Close)

	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(reg).RegisterRoutes(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	id, sess, err := reg.Create(middleware.GuestPrefix+"g1", CreateOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sessions/"+id+"/preview/stream", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	if first.Reason != reasonSnapshot || first.Version != 0 {
		t.Fatalf("unexpected first event %+v", first)
	}

	sess.Store().AddSkill(model.SkillInput{Name: "Rust", Level: 2})
	next := readEvent(t, reader)
	if next.Op != "skill.add" || next.Version != 1 || !strings.Contains(next.HTML, "Rust") {
		t.Fatalf("unexpected change event %+v", next)
	}
}

func readEvent(t *testing.T, r *bufio.Reader) previewEvent {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		case line == "" && data != "":
			if name != "preview" {
				name, data = "", ""
				continue
			}
			var ev previewEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			return ev
		}
	}
}
