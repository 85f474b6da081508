// Package form checks user-entered CV data before it reaches the store.
// The store itself accepts anything well-typed; the minimum required fields
// live here.
package form

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"cv-builder/cv/model"
)

// FieldErrors maps a JSON field name to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// AsFieldErrors unwraps err into FieldErrors.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// PersonalForm is a partial update of the personal details.
type PersonalForm struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=80"`
	LastName  *string `json:"lastName" validate:"omitempty,max=80"`
	Title     *string `json:"title" validate:"omitempty,max=120"`
	Email     *string `json:"email" validate:"omitempty,email_or_empty"`
	Phone     *string `json:"phone" validate:"omitempty,max=40"`
	Location  *string `json:"location" validate:"omitempty,max=120"`
	Website   *string `json:"website" validate:"omitempty,max=200"`
	Summary   *string `json:"summary" validate:"omitempty,max=4000"`
}

// PersonalFormFrom fills every field of the form from p, for checking an edit draft before it is saved.
func PersonalFormFrom(p model.PersonalInfo) PersonalForm {
	return PersonalForm{
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

// Validate checks the form.
func (f PersonalForm) Validate() error { return check(f) }

// ToPatch converts the form to a store patch.
func (f PersonalForm) ToPatch() model.PersonalPatch {
	return model.PersonalPatch{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Title:     f.Title,
		Email:     f.Email,
		Phone:     f.Phone,
		Location:  f.Location,
		Website:   f.Website,
		Summary:   f.Summary,
	}
}

// ExperienceForm is a new work history entry.
type ExperienceForm struct {
	Title       string `json:"title" validate:"required,max=120"`
	Company     string `json:"company" validate:"required,max=120"`
	Location    string `json:"location" validate:"max=120"`
	StartDate   string `json:"startDate" validate:"required,month"`
	EndDate     string `json:"endDate" validate:"required_unless=Current true,month"`
	Current     bool   `json:"current"`
	Description string `json:"description" validate:"max=4000"`
}

// Validate checks the form.
func (f ExperienceForm) Validate() error { return check(f) }

// ToInput converts a valid form to a store input.
func (f ExperienceForm) ToInput() model.ExperienceInput {
	return model.ExperienceInput{
		Title:       strings.TrimSpace(f.Title),
		Company:     strings.TrimSpace(f.Company),
		Location:    strings.TrimSpace(f.Location),
		StartDate:   strings.TrimSpace(f.StartDate),
		EndDate:     strings.TrimSpace(f.EndDate),
		Current:     f.Current,
		Description: f.Description,
	}
}

// EducationForm is a new education entry. Its dates are optional.
type EducationForm struct {
	Degree      string `json:"degree" validate:"required,max=120"`
	Institution string `json:"institution" validate:"required,max=120"`
	Location    string `json:"location" validate:"max=120"`
	StartDate   string `json:"startDate" validate:"month"`
	EndDate     string `json:"endDate" validate:"month"`
	Current     bool   `json:"current"`
	Description string `json:"description" validate:"max=4000"`
}

// Validate checks the form.
func (f EducationForm) Validate() error { return check(f) }

// ToInput converts a valid form to a store input.
func (f EducationForm) ToInput() model.EducationInput {
	return model.EducationInput{
		Degree:      strings.TrimSpace(f.Degree),
		Institution: strings.TrimSpace(f.Institution),
		Location:    strings.TrimSpace(f.Location),
		StartDate:   strings.TrimSpace(f.StartDate),
		EndDate:     strings.TrimSpace(f.EndDate),
		Current:     f.Current,
		Description: f.Description,
	}
}

// SkillForm is a new skill. Out-of-range levels are clamped by the store, not rejected.
type SkillForm struct {
	Name  string `json:"name" validate:"required,max=80"`
	Level int    `json:"level"`
}

// Validate checks the form.
func (f SkillForm) Validate() error { return check(f) }

// ToInput converts a valid form to a store input.
func (f SkillForm) ToInput() model.SkillInput {
	return model.SkillInput{Name: strings.TrimSpace(f.Name), Level: f.Level}
}

// ExperiencePatchForm is a partial update of an experience.
type ExperiencePatchForm struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=120"`
	Company     *string `json:"company" validate:"omitempty,min=1,max=120"`
	Location    *string `json:"location" validate:"omitempty,max=120"`
	StartDate   *string `json:"startDate" validate:"omitempty,month"`
	EndDate     *string `json:"endDate" validate:"omitempty,month"`
	Current     *bool   `json:"current"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

// Validate checks the form.
func (f ExperiencePatchForm) Validate() error { return check(f) }

// CheckMerged applies the period rules of ExperienceForm to e with the patch merged in.
// Patches that leave the dates and the current flag alone pass untouched.
func (f ExperiencePatchForm) CheckMerged(e model.Experience) error {
	if f.StartDate == nil && f.EndDate == nil && f.Current == nil {
		return nil
	}
	merged := f.ToPatch().Apply(e)
	return check(experiencePeriod{
		StartDate: merged.StartDate,
		EndDate:   merged.EndDate,
		Current:   merged.Current,
	})
}

type experiencePeriod struct {
	StartDate string `json:"startDate" validate:"required,month"`
	EndDate   string `json:"endDate" validate:"required_unless=Current true,month"`
	Current   bool   `json:"current"`
}

// ToPatch converts the form to a store patch.
func (f ExperiencePatchForm) ToPatch() model.ExperiencePatch {
	return model.ExperiencePatch{
		Title:       f.Title,
		Company:     f.Company,
		Location:    f.Location,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Current:     f.Current,
		Description: f.Description,
	}
}

// EducationPatchForm is a partial update of an education entry.
type EducationPatchForm struct {
	Degree      *string `json:"degree" validate:"omitempty,min=1,max=120"`
	Institution *string `json:"institution" validate:"omitempty,min=1,max=120"`
	Location    *string `json:"location" validate:"omitempty,max=120"`
	StartDate   *string `json:"startDate" validate:"omitempty,month"`
	EndDate     *string `json:"endDate" validate:"omitempty,month"`
	Current     *bool   `json:"current"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

// Validate checks the form.
func (f EducationPatchForm) Validate() error { return check(f) }

// ToPatch converts the form to a store patch.
func (f EducationPatchForm) ToPatch() model.EducationPatch {
	return model.EducationPatch{
		Degree:      f.Degree,
		Institution: f.Institution,
		Location:    f.Location,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Current:     f.Current,
		Description: f.Description,
	}
}

// SkillPatchForm is a partial update of a skill.
type SkillPatchForm struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=80"`
	Level *int    `json:"level"`
}

// Validate checks the form.
func (f SkillPatchForm) Validate() error { return check(f) }

// ToPatch converts the form to a store patch.
func (f SkillPatchForm) ToPatch() model.SkillPatch {
	return model.SkillPatch{Name: f.Name, Level: f.Level}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return strings.TrimSpace(value) == "" || model.IsMonth(value)
	})
	// A set but empty email clears the field. omitempty only skips nil pointers.
	_ = v.RegisterValidation("email_or_empty", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return value == "" || v.Var(value, "email") == nil
	})
	v.RegisterStructValidation(periodOrder, ExperienceForm{}, experiencePeriod{})
	return v
}

// periodOrder rejects an experience that ends before it starts.
func periodOrder(sl validator.StructLevel) {
	var f experiencePeriod
	switch v := sl.Current().Interface().(type) {
	case ExperienceForm:
		f = experiencePeriod{StartDate: v.StartDate, EndDate: v.EndDate, Current: v.Current}
	case experiencePeriod:
		f = v
	default:
		return
	}
	if f.Current || !model.IsMonth(f.StartDate) || !model.IsMonth(f.EndDate) {
		return
	}
	// YYYY-MM sorts lexically.
	if strings.TrimSpace(f.EndDate) < strings.TrimSpace(f.StartDate) {
		sl.ReportError(f.EndDate, "endDate", "EndDate", "after_start", "")
	}
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "is required"
	case "month":
		return "must be YYYY-MM"
	case "email", "email_or_empty":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must not be empty"
	case "after_start":
		return "must not be before startDate"
	default:
		return "is invalid"
	}
}
