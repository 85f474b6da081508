package render

import (
	"strings"

	"cv-builder/cv/model"
)

// Empty-state messages shown when a section has nothing to display.
const (
	PlaceholderName       = "Your Name"
	PlaceholderSummary    = "Add a professional summary"
	PlaceholderExperience = "Add your work experience"
	PlaceholderEducation  = "Add your education"
	PlaceholderSkills     = "Add your skills"
)

// SectionKind identifies a body section of the page.
type SectionKind string

const (
	SectionSummary    SectionKind = "summary"
	SectionExperience SectionKind = "experience"
	SectionEducation  SectionKind = "education"
	SectionSkills     SectionKind = "skills"
)

// Page is the rendered visual tree of a CV for one template.
type Page struct {
	Template TemplateID
	Theme    Theme
	Content
}

// Content is the template-independent part of a Page. Two templates rendering
// the same input always produce equal Content.
type Content struct {
	Editing    bool
	Header     Header
	Summary    Section
	Experience Section
	Education  Section
	Skills     Section
}

// Sections returns the body sections in display order.
func (c Content) Sections() []Section {
	return []Section{c.Summary, c.Experience, c.Education, c.Skills}
}

// Header holds the name, title and contact details.
type Header struct {
	Name      string
	FirstName Field
	LastName  Field
	Title     Field
	Contact   []Field
}

// Field is one personal value. In edit mode it is bound to the draft through Change.
type Field struct {
	Name     model.PersonalField
	Label    string
	Value    string
	Editable bool

	onChange func(model.PersonalField, string)
}

// Change forwards value to the field-change callback. It reports false for read-only fields.
func (f Field) Change(value string) bool {
	if !f.Editable || f.onChange == nil {
		return false
	}
	f.onChange(f.Name, value)
	return true
}

// Section is a headed block of the page body.
type Section struct {
	Kind        SectionKind
	Heading     string
	Empty       bool
	Placeholder string
	Text        *Field
	Items       []Item
}

// Item is one entity of a collection section, already formatted for display.
type Item struct {
	ID          string
	Title       string
	Subtitle    string
	Location    string
	Start       string
	End         string
	Period      string
	Description string
	Level       int
	LevelLabel  string
}

var fieldLabels = map[model.PersonalField]string{
	model.FieldFirstName: "First name",
	model.FieldLastName:  "Last name",
	model.FieldTitle:     "Professional title",
	model.FieldEmail:     "Email",
	model.FieldPhone:     "Phone",
	model.FieldLocation:  "Location",
	model.FieldWebsite:   "Website",
	model.FieldSummary:   "Summary",
}

var contactFields = []model.PersonalField{
	model.FieldEmail,
	model.FieldPhone,
	model.FieldLocation,
	model.FieldWebsite,
}

// project builds the Content shared by every template.
func project(doc model.Document, personal model.PersonalInfo, editing bool, onChange func(model.PersonalField, string)) Content {
	field := func(name model.PersonalField) Field {
		f := Field{
			Name:  name,
			Label: fieldLabels[name],
			Value: personal.Get(name),
		}
		if editing {
			f.Editable = true
			f.onChange = onChange
		}
		return f
	}

	header := Header{
		Name:      personal.FullName(),
		FirstName: field(model.FieldFirstName),
		LastName:  field(model.FieldLastName),
		Title:     field(model.FieldTitle),
	}
	if header.Name == "" {
		header.Name = PlaceholderName
	}
	for _, name := range contactFields {
		f := field(name)
		if !editing && strings.TrimSpace(f.Value) == "" {
			continue
		}
		header.Contact = append(header.Contact, f)
	}

	summary := field(model.FieldSummary)
	return Content{
		Editing: editing,
		Header:  header,
		Summary: Section{
			Kind:        SectionSummary,
			Heading:     "Professional Summary",
			Empty:       strings.TrimSpace(summary.Value) == "",
			Placeholder: PlaceholderSummary,
			Text:        &summary,
		},
		Experience: collection(SectionExperience, "Experience", PlaceholderExperience, experienceItems(doc.Experience)),
		Education:  collection(SectionEducation, "Education", PlaceholderEducation, educationItems(doc.Education)),
		Skills:     collection(SectionSkills, "Skills", PlaceholderSkills, skillItems(doc.Skills)),
	}
}

func collection(kind SectionKind, heading, placeholder string, items []Item) Section {
	return Section{
		Kind:        kind,
		Heading:     heading,
		Empty:       len(items) == 0,
		Placeholder: placeholder,
		Items:       items,
	}
}

func experienceItems(in []model.Experience) []Item {
	out := make([]Item, 0, len(in))
	for _, e := range in {
		start, end := model.PeriodBounds(e.StartDate, e.EndDate, e.Current)
		out = append(out, Item{
			ID:          e.ID,
			Title:       e.Title,
			Subtitle:    e.Company,
			Location:    e.Location,
			Start:       start,
			End:         end,
			Period:      model.Period(e.StartDate, e.EndDate, e.Current),
			Description: e.Description,
		})
	}
	return out
}

func educationItems(in []model.Education) []Item {
	out := make([]Item, 0, len(in))
	for _, e := range in {
		start, end := model.PeriodBounds(e.StartDate, e.EndDate, e.Current)
		out = append(out, Item{
			ID:          e.ID,
			Title:       e.Degree,
			Subtitle:    e.Institution,
			Location:    e.Location,
			Start:       start,
			End:         end,
			Period:      model.Period(e.StartDate, e.EndDate, e.Current),
			Description: e.Description,
		})
	}
	return out
}

func skillItems(in []model.Skill) []Item {
	out := make([]Item, 0, len(in))
	for _, s := range in {
		level := model.ClampSkillLevel(s.Level)
		out = append(out, Item{
			ID:         s.ID,
			Title:      s.Name,
			Level:      level,
			LevelLabel: model.SkillLevelLabel(level),
		})
	}
	return out
}
