package cvs

import (
	"time"

	"cv-builder/cv/model"
)

// SavedCV is a persisted snapshot of an editing session.
type SavedCV struct {
	ID         string
	UserID     string
	Title      string
	TemplateID string
	Document   model.Document
	// Version is the session store version the snapshot was taken at.
	Version   uint64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
