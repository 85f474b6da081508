// Package render projects a CV document into a page tree and HTML for one of
// a closed set of templates. Templates share a single projection, so switching
// between them only changes presentation.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"cv-builder/cv/model"
)

// TemplateID names a visual template.
type TemplateID string

const (
	Modern   TemplateID = "modern"
	Minimal  TemplateID = "minimal"
	Creative TemplateID = "creative"
)

// DefaultTemplate is used when no template has been chosen.
const DefaultTemplate = Modern

// ErrUnknownTemplate is returned for identifiers outside the closed set.
var ErrUnknownTemplate = errors.New("unknown template")

// Templates lists every supported template in a stable order.
func Templates() []TemplateID {
	return []TemplateID{Modern, Minimal, Creative}
}

// ParseTemplateID validates raw against the supported templates.
func ParseTemplateID(raw string) (TemplateID, error) {
	id := TemplateID(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := registry[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, raw)
	}
	return id, nil
}

// Input is everything a template needs. Templates hold no other state.
type Input struct {
	Template TemplateID
	Document model.Document
	Editing  bool
	// Draft replaces Document.Personal while editing.
	Draft         *model.PersonalInfo
	OnFieldChange func(field model.PersonalField, value string)
}

// Template renders a Page to markup.
type Template interface {
	ID() TemplateID
	Theme() Theme
	Execute(w io.Writer, page Page) error
}

//go:embed templates/*.html.tmpl
var templateFiles embed.FS

type htmlTemplate struct {
	id    TemplateID
	theme Theme
	tpl   *template.Template
}

func (t *htmlTemplate) ID() TemplateID { return t.id }
func (t *htmlTemplate) Theme() Theme   { return t.theme }

func (t *htmlTemplate) Execute(w io.Writer, page Page) error {
	return t.tpl.ExecuteTemplate(w, "page", page)
}

var registry = mustLoadTemplates()

func mustLoadTemplates() map[TemplateID]Template {
	out := make(map[TemplateID]Template, len(themes))
	for _, id := range Templates() {
		tpl, err := template.New(string(id)).Funcs(funcs).ParseFS(
			templateFiles,
			"templates/partials.html.tmpl",
			"templates/"+string(id)+".html.tmpl",
		)
		if err != nil {
			panic(fmt.Sprintf("render: parse template %s: %v", id, err))
		}
		out[id] = &htmlTemplate{id: id, theme: themes[id], tpl: tpl}
	}
	return out
}

// Lookup returns the Template for id.
func Lookup(id TemplateID) (Template, error) {
	t, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// Render builds the page tree for in. It never mutates in.Document or in.Draft.
func Render(in Input) (Page, error) {
	tpl, err := Lookup(in.Template)
	if err != nil {
		return Page{}, err
	}
	personal := in.Document.Personal
	if in.Editing && in.Draft != nil {
		personal = *in.Draft
	}
	return Page{
		Template: tpl.ID(),
		Theme:    tpl.Theme(),
		Content:  project(in.Document, personal, in.Editing, in.OnFieldChange),
	}, nil
}

// RenderHTML renders in and writes the template's markup to w.
func RenderHTML(w io.Writer, in Input) error {
	page, err := Render(in)
	if err != nil {
		return err
	}
	tpl, err := Lookup(page.Template)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("execute template %s: %w", page.Template, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// HTML is a convenience wrapper around RenderHTML.
func HTML(in Input) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	// css marks theme values as trusted; they only ever come from the themes table.
	"css": func(v string) template.CSS { return template.CSS(v) },
	"heading": func(theme Theme, text string) string {
		if theme.HeadingCase == HeadingUpper {
			return strings.ToUpper(text)
		}
		return text
	},
	"percent": func(level int) int {
		return model.ClampSkillLevel(level) * 100 / model.MaxSkillLevel
	},
	"dots": func(level int) []bool {
		out := make([]bool, model.MaxSkillLevel)
		for i := range out {
			out[i] = i < model.ClampSkillLevel(level)
		}
		return out
	},
	"paragraphs": func(text string) []string {
		var out []string
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	},
}
