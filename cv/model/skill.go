package model

const (
	MinSkillLevel = 1
	MaxSkillLevel = 5
)

var skillLevelLabels = [MaxSkillLevel]string{
	"Beginner",
	"Basic",
	"Intermediate",
	"Advanced",
	"Expert",
}

// ClampSkillLevel forces level into [MinSkillLevel, MaxSkillLevel].
func ClampSkillLevel(level int) int {
	if level < MinSkillLevel {
		return MinSkillLevel
	}
	if level > MaxSkillLevel {
		return MaxSkillLevel
	}
	return level
}

// SkillLevelLabel returns the ordinal label for level, clamping first.
func SkillLevelLabel(level int) string {
	return skillLevelLabels[ClampSkillLevel(level)-1]
}

// SkillLevelLabels returns the five labels in ascending order.
func SkillLevelLabels() []string {
	out := make([]string, len(skillLevelLabels))
	copy(out, skillLevelLabels[:])
	return out
}
