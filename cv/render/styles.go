package render

// Theme captures everything a template may vary. None of it affects which data is shown.
type Theme struct {
	Layout      string `json:"layout"`
	FontFamily  string `json:"fontFamily"`
	AccentColor string `json:"accentColor"`
	TextColor   string `json:"textColor"`
	HeadingCase string `json:"headingCase"`
	SkillStyle  string `json:"skillStyle"`
	BaseSizePt  int    `json:"baseSizePt"`
	NameSizePt  int    `json:"nameSizePt"`
}

const (
	LayoutSingleColumn = "single-column"
	LayoutSidebar      = "sidebar"
	LayoutCentered     = "centered"

	HeadingUpper = "upper"
	HeadingTitle = "title"

	SkillBars   = "bars"
	SkillDots   = "dots"
	SkillLabels = "labels"
)

var themes = map[TemplateID]Theme{
	Modern: {
		Layout:      LayoutSingleColumn,
		FontFamily:  "Inter, Helvetica, Arial, sans-serif",
		AccentColor: "#2563EB",
		TextColor:   "#1F2937",
		HeadingCase: HeadingUpper,
		SkillStyle:  SkillBars,
		BaseSizePt:  10,
		NameSizePt:  26,
	},
	Minimal: {
		Layout:      LayoutCentered,
		FontFamily:  "Georgia, 'Times New Roman', serif",
		AccentColor: "#111111",
		TextColor:   "#111111",
		HeadingCase: HeadingTitle,
		SkillStyle:  SkillLabels,
		BaseSizePt:  11,
		NameSizePt:  22,
	},
	Creative: {
		Layout:      LayoutSidebar,
		FontFamily:  "'Poppins', 'Segoe UI', sans-serif",
		AccentColor: "#DB2777",
		TextColor:   "#312E81",
		HeadingCase: HeadingUpper,
		SkillStyle:  SkillDots,
		BaseSizePt:  10,
		NameSizePt:  30,
	},
}
