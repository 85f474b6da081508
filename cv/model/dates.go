package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PresentLabel is shown as the end of an ongoing period.
const PresentLabel = "Present"

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsMonth reports whether value is a YYYY-MM month.
func IsMonth(value string) bool {
	return monthPattern.MatchString(strings.TrimSpace(value))
}

// ValidateMonth accepts empty values and YYYY-MM months.
func ValidateMonth(value, field string) error {
	if strings.TrimSpace(value) == "" || IsMonth(value) {
		return nil
	}
	return fmt.Errorf("%s must be YYYY-MM", field)
}

// FormatMonthYear renders a YYYY-MM value as "Jan 2022". Anything else is returned trimmed.
func FormatMonthYear(value string) string {
	trimmed := strings.TrimSpace(value)
	if !monthPattern.MatchString(trimmed) {
		return trimmed
	}
	t, err := time.Parse("2006-01", trimmed)
	if err != nil {
		return trimmed
	}
	return t.Format("Jan 2006")
}

// PeriodBounds returns the display start and end of a dated entry.
// An ongoing entry always ends with PresentLabel, whatever endDate holds.
func PeriodBounds(startDate, endDate string, current bool) (string, string) {
	start := FormatMonthYear(startDate)
	if current {
		return start, PresentLabel
	}
	return start, FormatMonthYear(endDate)
}

// Period returns the display range of a dated entry, e.g. "Jan 2022 - Present".
func Period(startDate, endDate string, current bool) string {
	start, end := PeriodBounds(startDate, endDate, current)
	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		return end
	case end == "":
		return start
	default:
		return start + " - " + end
	}
}
