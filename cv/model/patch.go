package model

import "fmt"

// PersonalField names one editable field of PersonalInfo.
type PersonalField string

const (
	FieldFirstName PersonalField = "firstName"
	FieldLastName  PersonalField = "lastName"
	FieldTitle     PersonalField = "title"
	FieldEmail     PersonalField = "email"
	FieldPhone     PersonalField = "phone"
	FieldLocation  PersonalField = "location"
	FieldWebsite   PersonalField = "website"
	FieldSummary   PersonalField = "summary"
)

// PersonalFields lists every PersonalField in display order.
var PersonalFields = []PersonalField{
	FieldFirstName,
	FieldLastName,
	FieldTitle,
	FieldEmail,
	FieldPhone,
	FieldLocation,
	FieldWebsite,
	FieldSummary,
}

// ParsePersonalField validates a raw field name.
func ParsePersonalField(raw string) (PersonalField, error) {
	for _, f := range PersonalFields {
		if string(f) == raw {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown personal field %q", raw)
}

// Get returns the value of field f.
func (p PersonalInfo) Get(f PersonalField) string {
	switch f {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldTitle:
		return p.Title
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	case FieldLocation:
		return p.Location
	case FieldWebsite:
		return p.Website
	case FieldSummary:
		return p.Summary
	default:
		return ""
	}
}

// With returns a copy of p with field f set to value. Unknown fields leave p unchanged.
func (p PersonalInfo) With(f PersonalField, value string) PersonalInfo {
	switch f {
	case FieldFirstName:
		p.FirstName = value
	case FieldLastName:
		p.LastName = value
	case FieldTitle:
		p.Title = value
	case FieldEmail:
		p.Email = value
	case FieldPhone:
		p.Phone = value
	case FieldLocation:
		p.Location = value
	case FieldWebsite:
		p.Website = value
	case FieldSummary:
		p.Summary = value
	}
	return p
}

// PersonalPatch is a partial update of PersonalInfo. Nil fields are left untouched.
type PersonalPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Title     *string `json:"title,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
	Website   *string `json:"website,omitempty"`
	Summary   *string `json:"summary,omitempty"`
}

// PersonalPatchFrom builds a patch that sets every field to the value in p.
func PersonalPatchFrom(p PersonalInfo) PersonalPatch {
	return PersonalPatch{
		FirstName: &p.FirstName,
		LastName:  &p.LastName,
		Title:     &p.Title,
		Email:     &p.Email,
		Phone:     &p.Phone,
		Location:  &p.Location,
		Website:   &p.Website,
		Summary:   &p.Summary,
	}
}

// Apply merges the patch into p and returns the result.
func (pp PersonalPatch) Apply(p PersonalInfo) PersonalInfo {
	setString(&p.FirstName, pp.FirstName)
	setString(&p.LastName, pp.LastName)
	setString(&p.Title, pp.Title)
	setString(&p.Email, pp.Email)
	setString(&p.Phone, pp.Phone)
	setString(&p.Location, pp.Location)
	setString(&p.Website, pp.Website)
	setString(&p.Summary, pp.Summary)
	return p
}

// Empty reports whether the patch sets nothing.
func (pp PersonalPatch) Empty() bool {
	return pp == PersonalPatch{}
}

// ExperiencePatch is a partial update of an Experience. The ID is not patchable.
type ExperiencePatch struct {
	Title       *string `json:"title,omitempty"`
	Company     *string `json:"company,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Current     *bool   `json:"current,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply merges the patch into e and returns the result.
func (ep ExperiencePatch) Apply(e Experience) Experience {
	setString(&e.Title, ep.Title)
	setString(&e.Company, ep.Company)
	setString(&e.Location, ep.Location)
	setString(&e.StartDate, ep.StartDate)
	setString(&e.EndDate, ep.EndDate)
	setBool(&e.Current, ep.Current)
	setString(&e.Description, ep.Description)
	return e
}

// EducationPatch is a partial update of an Education. The ID is not patchable.
type EducationPatch struct {
	Degree      *string `json:"degree,omitempty"`
	Institution *string `json:"institution,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Current     *bool   `json:"current,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply merges the patch into e and returns the result.
func (ep EducationPatch) Apply(e Education) Education {
	setString(&e.Degree, ep.Degree)
	setString(&e.Institution, ep.Institution)
	setString(&e.Location, ep.Location)
	setString(&e.StartDate, ep.StartDate)
	setString(&e.EndDate, ep.EndDate)
	setBool(&e.Current, ep.Current)
	setString(&e.Description, ep.Description)
	return e
}

// SkillPatch is a partial update of a Skill. Level is clamped on apply.
type SkillPatch struct {
	Name  *string `json:"name,omitempty"`
	Level *int    `json:"level,omitempty"`
}

// Apply merges the patch into s and returns the result.
func (sp SkillPatch) Apply(s Skill) Skill {
	setString(&s.Name, sp.Name)
	if sp.Level != nil {
		s.Level = ClampSkillLevel(*sp.Level)
	}
	return s
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
