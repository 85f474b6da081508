package exports

import (
	"fmt"
	"strings"
	"time"
)

// Format is an export file format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// ParseFormat validates a raw format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatHTML, FormatPDF, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidInput, raw)
	}
}

// ContentType is the MIME type of files in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// Export is a rendered CV file kept in the object store.
type Export struct {
	ID          string
	UserID      string
	CVID        string
	Format      Format
	TemplateID  string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	// DocVersion is the session store version the file was rendered from.
	DocVersion uint64
	CreatedAt  time.Time
}
