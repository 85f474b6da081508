package sessions

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/editor"
	"cv-builder/cv/model"
	"cv-builder/cv/render"
)

type createRequest struct {
	TemplateID string          `json:"templateId"`
	Document   json.RawMessage `json:"document"`
}

type templateRequest struct {
	TemplateID string `json:"templateId"`
}

type draftFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type sessionResponse struct {
	SessionID  string              `json:"sessionId"`
	CVID       string              `json:"cvId,omitempty"`
	TemplateID render.TemplateID   `json:"templateId"`
	Version    uint64              `json:"version"`
	Editing    bool                `json:"editing"`
	Draft      *model.PersonalInfo `json:"draft,omitempty"`
	Document   model.Document      `json:"document"`
}

func toSessionResponse(info Info, sess *editor.Session) sessionResponse {
	resp := sessionResponse{
		SessionID:  info.ID,
		CVID:       info.CVID,
		TemplateID: sess.Template(),
		Version:    sess.Store().Version(),
		Document:   sess.Store().Snapshot(),
	}
	if draft, ok := sess.Overlay().Draft(); ok {
		resp.Editing = true
		resp.Draft = &draft
	}
	return resp
}

func mutationResponse(id string, sess *editor.Session) gin.H {
	return gin.H{
		"id":      id,
		"version": sess.Store().Version(),
	}
}

type fieldResponse struct {
	Name     model.PersonalField `json:"name"`
	Label    string              `json:"label"`
	Value    string              `json:"value"`
	Editable bool                `json:"editable"`
}

type itemResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Location    string `json:"location,omitempty"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level,omitempty"`
	LevelLabel  string `json:"levelLabel,omitempty"`
}

type sectionResponse struct {
	Kind        render.SectionKind `json:"kind"`
	Heading     string             `json:"heading"`
	Empty       bool               `json:"empty"`
	Placeholder string             `json:"placeholder,omitempty"`
	Text        *fieldResponse     `json:"text,omitempty"`
	Items       []itemResponse     `json:"items,omitempty"`
}

type pageResponse struct {
	TemplateID render.TemplateID `json:"templateId"`
	Theme      render.Theme      `json:"theme"`
	Editing    bool              `json:"editing"`
	Header     struct {
		Name      string          `json:"name"`
		FirstName fieldResponse   `json:"firstName"`
		LastName  fieldResponse   `json:"lastName"`
		Title     fieldResponse   `json:"title"`
		Contact   []fieldResponse `json:"contact"`
	} `json:"header"`
	Sections []sectionResponse `json:"sections"`
}

func toPageResponse(page render.Page) pageResponse {
	var resp pageResponse
	resp.TemplateID = page.Template
	resp.Theme = page.Theme
	resp.Editing = page.Editing
	resp.Header.Name = page.Header.Name
	resp.Header.FirstName = toFieldResponse(page.Header.FirstName)
	resp.Header.LastName = toFieldResponse(page.Header.LastName)
	resp.Header.Title = toFieldResponse(page.Header.Title)
	resp.Header.Contact = make([]fieldResponse, 0, len(page.Header.Contact))
	for _, f := range page.Header.Contact {
		resp.Header.Contact = append(resp.Header.Contact, toFieldResponse(f))
	}
	for _, s := range page.Sections() {
		out := sectionResponse{
			Kind:        s.Kind,
			Heading:     s.Heading,
			Empty:       s.Empty,
			Placeholder: s.Placeholder,
		}
		if s.Text != nil {
			text := toFieldResponse(*s.Text)
			out.Text = &text
		}
		for _, it := range s.Items {
			out.Items = append(out.Items, itemResponse{
				ID:          it.ID,
				Title:       it.Title,
				Subtitle:    it.Subtitle,
				Location:    it.Location,
				Period:      it.Period,
				Description: it.Description,
				Level:       it.Level,
				LevelLabel:  it.LevelLabel,
			})
		}
		resp.Sections = append(resp.Sections, out)
	}
	return resp
}

func toFieldResponse(f render.Field) fieldResponse {
	return fieldResponse{Name: f.Name, Label: f.Label, Value: f.Value, Editable: f.Editable}
}

type previewEvent struct {
	Reason     editor.Reason     `json:"reason"`
	Op         string            `json:"op,omitempty"`
	EntityID   string            `json:"entityId,omitempty"`
	Version    uint64            `json:"version"`
	TemplateID render.TemplateID `json:"templateId"`
	Editing    bool              `json:"editing"`
	HTML       string            `json:"html"`
}
