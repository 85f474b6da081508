package model

// Document is the complete in-memory CV: personal details plus the
// experience, education and skill collections. Collections keep insertion order.
type Document struct {
	Personal   PersonalInfo `json:"personal"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []Skill      `json:"skills"`
}

// PersonalInfo holds the singleton header and summary fields of a CV.
type PersonalInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	Website   string `json:"website"`
	Summary   string `json:"summary"`
}

// FullName joins first and last name, skipping empty parts.
func (p PersonalInfo) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// Experience represents a work history entry.
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Education represents an education entry.
type Education struct {
	ID          string `json:"id"`
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Skill is a named skill with a level between MinSkillLevel and MaxSkillLevel.
type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// ExperienceInput is an Experience without its identifier, as submitted by an add action.
type ExperienceInput struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// WithID builds the stored entity for the given identifier.
func (in ExperienceInput) WithID(id string) Experience {
	return Experience{
		ID:          id,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Current:     in.Current,
		Description: in.Description,
	}
}

// EducationInput is an Education without its identifier.
type EducationInput struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// WithID builds the stored entity for the given identifier.
func (in EducationInput) WithID(id string) Education {
	return Education{
		ID:          id,
		Degree:      in.Degree,
		Institution: in.Institution,
		Location:    in.Location,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Current:     in.Current,
		Description: in.Description,
	}
}

// SkillInput is a Skill without its identifier. Level is clamped when stored.
type SkillInput struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// WithID builds the stored entity for the given identifier, clamping the level.
func (in SkillInput) WithID(id string) Skill {
	return Skill{ID: id, Name: in.Name, Level: ClampSkillLevel(in.Level)}
}

// New returns an empty document with non-nil collections.
func New() Document {
	return Document{
		Experience: []Experience{},
		Education:  []Education{},
		Skills:     []Skill{},
	}
}

// Clone returns a copy that shares no slice backing arrays with d.
func (d Document) Clone() Document {
	out := Document{
		Personal:   d.Personal,
		Experience: make([]Experience, len(d.Experience)),
		Education:  make([]Education, len(d.Education)),
		Skills:     make([]Skill, len(d.Skills)),
	}
	copy(out.Experience, d.Experience)
	copy(out.Education, d.Education)
	copy(out.Skills, d.Skills)
	return out
}

// Normalize clamps skill levels and replaces nil collections with empty ones.
// It is applied to documents entering the system from outside (imports, saved snapshots).
func (d Document) Normalize() Document {
	out := d.Clone()
	for i := range out.Skills {
		out.Skills[i].Level = ClampSkillLevel(out.Skills[i].Level)
	}
	return out
}
