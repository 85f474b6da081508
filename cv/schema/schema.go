// Package schema validates CV documents supplied as JSON, e.g. on import.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"cv-builder/cv/model"
)

//go:embed cv.schema.json
var schemaJSON []byte

// ErrInvalidDocument is returned when a document does not match the CV schema.
var ErrInvalidDocument = errors.New("invalid cv document")

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDocument }

var compiled = mustCompile()

func mustCompile() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("schema: compile cv.schema.json: %v", err))
	}
	return s
}

// Schema returns the raw JSON schema.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// Validate checks raw against the CV schema.
func Validate(raw []byte) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &ValidationError{Problems: []string{"document is empty"}}
	}
	res, err := compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return &ValidationError{Problems: problems}
}

// ValidateDocument checks an in-memory document against the schema.
func ValidateDocument(doc model.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return Validate(raw)
}

// Decode validates raw and returns the normalised document: collections are
// never nil and skill levels are clamped.
func Decode(raw []byte) (model.Document, error) {
	if err := Validate(raw); err != nil {
		return model.Document{}, err
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.Normalize(), nil
}
