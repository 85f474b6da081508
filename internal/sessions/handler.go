package sessions

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/editor"
	"cv-builder/cv/form"
	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/cv/schema"
	"cv-builder/cv/store"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
	"cv-builder/internal/shared/telemetry"
)

const (
	maxSessionBody   = 1 << 20 // 1MB
	defaultHeartbeat = 15 * time.Second
	streamBuffer     = 32
)

// reasonSnapshot marks the first event of a preview stream.
const reasonSnapshot editor.Reason = "snapshot"

// Handler wires HTTP handlers to the session registry.
type Handler struct {
	Registry *Registry
	// Heartbeat is how often an idle preview stream checks that its session still exists.
	Heartbeat time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(reg *Registry) *Handler {
	return &Handler{Registry: reg, Heartbeat: defaultHeartbeat}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:id", h.get)
	rg.DELETE("/sessions/:id", h.remove)

	rg.PATCH("/sessions/:id/personal", h.updatePersonal)

	rg.POST("/sessions/:id/experience", addEntity(h, func(s *store.Store, f form.ExperienceForm) string {
		return s.AddExperience(f.ToInput())
	}))
	rg.PATCH("/sessions/:id/experience/:entityId", updateEntity(h, func(s *store.Store, id string, f form.ExperiencePatchForm) (bool, error) {
		return s.UpdateExperienceIf(id, f.ToPatch(), f.CheckMerged)
	}))
	rg.DELETE("/sessions/:id/experience/:entityId", removeEntity(h, (*store.Store).RemoveExperience))

	rg.POST("/sessions/:id/education", addEntity(h, func(s *store.Store, f form.EducationForm) string {
		return s.AddEducation(f.ToInput())
	}))
	rg.PATCH("/sessions/:id/education/:entityId", updateEntity(h, func(s *store.Store, id string, f form.EducationPatchForm) (bool, error) {
		return s.UpdateEducation(id, f.ToPatch()), nil
	}))
	rg.DELETE("/sessions/:id/education/:entityId", removeEntity(h, (*store.Store).RemoveEducation))

	rg.POST("/sessions/:id/skills", addEntity(h, func(s *store.Store, f form.SkillForm) string {
		return s.AddSkill(f.ToInput())
	}))
	rg.PATCH("/sessions/:id/skills/:entityId", updateEntity(h, func(s *store.Store, id string, f form.SkillPatchForm) (bool, error) {
		return s.UpdateSkill(id, f.ToPatch()), nil
	}))
	rg.DELETE("/sessions/:id/skills/:entityId", removeEntity(h, (*store.Store).RemoveSkill))

	rg.PUT("/sessions/:id/template", h.setTemplate)

	rg.POST("/sessions/:id/edit", h.beginEdit)
	rg.PATCH("/sessions/:id/edit", h.setDraftField)
	rg.POST("/sessions/:id/edit/save", h.saveEdit)
	rg.POST("/sessions/:id/edit/cancel", h.cancelEdit)

	rg.GET("/sessions/:id/preview", h.previewHTML)
	rg.GET("/sessions/:id/preview.json", h.previewJSON)
	rg.GET("/sessions/:id/preview/stream", h.previewStream)
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSessionBody))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read request body", nil)
		return
	}

	var req createRequest
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	opts := CreateOptions{}
	if req.TemplateID != "" {
		tpl, err := render.ParseTemplateID(req.TemplateID)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		opts.Template = tpl
	}
	if doc := bytes.TrimSpace(req.Document); len(doc) > 0 && !bytes.Equal(doc, []byte("null")) {
		decoded, err := schema.Decode(doc)
		if err != nil {
			writeSchemaError(c, err)
			return
		}
		opts.Document = &decoded
	}

	id, sess, err := h.Registry.Create(userID, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetSessionID(c, id)

	info, err := h.Registry.Info(userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, toSessionResponse(info, sess))
}

func (h *Handler) get(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	respond.OK(c, toSessionResponse(info, sess))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id := c.Param("id")
	middleware.SetSessionID(c, id)

	if err := h.Registry.Delete(userID, id); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) updatePersonal(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	var f form.PersonalForm
	if !bindJSON(c, &f) || !validateForm(c, f) {
		return
	}
	sess.Store().UpdatePersonal(f.ToPatch())
	respond.OK(c, toSessionResponse(info, sess))
}

type formValidator interface {
	Validate() error
}

func addEntity[F formValidator](h *Handler, add func(*store.Store, F) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := h.session(c)
		if !ok {
			return
		}
		var f F
		if !bindJSON(c, &f) || !validateForm(c, f) {
			return
		}
		id := add(sess.Store(), f)
		respond.JSON(c, http.StatusCreated, mutationResponse(id, sess))
	}
}

// updateEntity answers 204 for ids the document does not hold, matching the store's no-op.
// An error from update is a form error against the merged entity.
func updateEntity[F formValidator](h *Handler, update func(*store.Store, string, F) (bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := h.session(c)
		if !ok {
			return
		}
		var f F
		if !bindJSON(c, &f) || !validateForm(c, f) {
			return
		}
		entityID := c.Param("entityId")
		updated, err := update(sess.Store(), entityID, f)
		if err != nil {
			writeFormError(c, err)
			return
		}
		if !updated {
			respond.NoContent(c)
			return
		}
		respond.OK(c, mutationResponse(entityID, sess))
	}
}

func removeEntity(h *Handler, remove func(*store.Store, string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := h.session(c)
		if !ok {
			return
		}
		remove(sess.Store(), c.Param("entityId"))
		respond.NoContent(c)
	}
}

func (h *Handler) setTemplate(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	tpl, err := render.ParseTemplateID(req.TemplateID)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if err := sess.SetTemplate(tpl); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toSessionResponse(info, sess))
}

func (h *Handler) beginEdit(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	if err := sess.BeginEdit(); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toSessionResponse(info, sess))
}

func (h *Handler) setDraftField(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	var req draftFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := sess.SetDraftField(model.PersonalField(req.Field), req.Value); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toSessionResponse(info, sess))
}

// saveEdit refuses drafts that would not pass the personal form, leaving edit mode on.
func (h *Handler) saveEdit(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	draft, editing := sess.Overlay().Draft()
	if !editing {
		writeError(c, editor.ErrNotEditing)
		return
	}
	if err := form.PersonalFormFrom(draft).Validate(); err != nil {
		writeFormError(c, err)
		return
	}
	if err := sess.SaveEdit(); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toSessionResponse(info, sess))
}

func (h *Handler) cancelEdit(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}
	if err := sess.CancelEdit(); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toSessionResponse(info, sess))
}

func (h *Handler) previewHTML(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	tpl, ok := templateFromQuery(c, sess)
	if !ok {
		return
	}
	html, err := renderHTML(sess, tpl)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *Handler) previewJSON(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	tpl, ok := templateFromQuery(c, sess)
	if !ok {
		return
	}
	start := time.Now()
	page, err := sess.PreviewWith(tpl)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ObserveRender(string(tpl), time.Since(start))
	respond.OK(c, toPageResponse(page))
}

// previewStream pushes one "preview" event per session event. Events that arrive
// while the client is behind are dropped; the next one carries the latest HTML.
func (h *Handler) previewStream(c *gin.Context) {
	sess, info, ok := h.sessionWithInfo(c)
	if !ok {
		return
	}

	events := make(chan editor.Event, streamBuffer)
	stop := sess.Subscribe(func(ev editor.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer stop()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if !sendPreview(c, sess, editor.Event{
		Reason:   reasonSnapshot,
		Version:  sess.Store().Version(),
		Template: sess.Template(),
		Editing:  sess.Overlay().Editing(),
	}) {
		return
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			return sendPreview(c, sess, ev)
		case <-ticker.C:
			if _, err := h.Registry.Info(info.Owner, info.ID); err != nil {
				return false
			}
			c.SSEvent("ping", gin.H{"version": sess.Store().Version()})
			return true
		}
	})
}

func sendPreview(c *gin.Context, sess *editor.Session, ev editor.Event) bool {
	html, err := renderHTML(sess, ev.Template)
	if err != nil {
		telemetry.Error("session.preview_failed", map[string]any{
			"session_id": c.Param("id"),
			"template":   string(ev.Template),
			"err":        err,
		})
		return false
	}
	c.SSEvent("preview", previewEvent{
		Reason:     ev.Reason,
		Op:         string(ev.Op),
		EntityID:   ev.EntityID,
		Version:    ev.Version,
		TemplateID: ev.Template,
		Editing:    ev.Editing,
		HTML:       string(html),
	})
	c.Writer.Flush()
	return true
}

func renderHTML(sess *editor.Session, tpl render.TemplateID) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := sess.PreviewHTML(&buf, tpl); err != nil {
		return nil, err
	}
	metrics.ObserveRender(string(tpl), time.Since(start))
	return buf.Bytes(), nil
}

func templateFromQuery(c *gin.Context, sess *editor.Session) (render.TemplateID, bool) {
	raw := c.Query("template")
	if raw == "" {
		return sess.Template(), true
	}
	tpl, err := render.ParseTemplateID(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return "", false
	}
	return tpl, true
}

func (h *Handler) session(c *gin.Context) (*editor.Session, bool) {
	sess, _, ok := h.sessionWithInfo(c)
	return sess, ok
}

func (h *Handler) sessionWithInfo(c *gin.Context) (*editor.Session, Info, bool) {
	userID := middleware.UserIDFromContext(c)
	id := c.Param("id")
	middleware.SetSessionID(c, id)

	sess, err := h.Registry.Get(userID, id)
	if err != nil {
		writeError(c, err)
		return nil, Info{}, false
	}
	info, err := h.Registry.Info(userID, id)
	if err != nil {
		writeError(c, err)
		return nil, Info{}, false
	}
	return sess, info, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return false
	}
	return true
}

func validateForm(c *gin.Context, f formValidator) bool {
	if err := f.Validate(); err != nil {
		writeFormError(c, err)
		return false
	}
	return true
}

func writeFormError(c *gin.Context, err error) {
	if fe, ok := form.AsFieldErrors(err); ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fields", fe)
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
}

func writeSchemaError(c *gin.Context, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document does not match the CV schema", verr.Problems)
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, render.ErrUnknownTemplate), errors.Is(err, editor.ErrUnknownField):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, editor.ErrAlreadyEditing):
		respond.Error(c, http.StatusConflict, "already_editing", "edit mode is already active", nil)
	case errors.Is(err, editor.ErrNotEditing):
		respond.Error(c, http.StatusConflict, "not_editing", "edit mode is not active", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "session request failed", nil)
	}
}
