package exports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/storage/object"
	"cv-builder/internal/shared/telemetry"
)

const storageNamespace = "exports"

// Request selects what to export. An empty TemplateID uses the session's template.
type Request struct {
	Format     Format
	TemplateID render.TemplateID
}

// Service renders session snapshots to files and keeps them in the object store.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Sessions *sessions.Registry
	// PDF may be nil, in which case PDF exports fail with ErrUnsupported.
	PDF PDFRenderer
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ExportSession renders the committed document of a session. Edit drafts are not
// part of exports; the file always shows what a save would store.
func (s *Service) ExportSession(ctx context.Context, userID, sessionID string, req Request) (exp Export, err error) {
	if userID == "" || sessionID == "" {
		return Export{}, ErrInvalidInput
	}
	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return Export{}, err
	}
	req.Format = format

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.IncExport(string(req.Format), outcome)
	}()

	sess, err := s.Sessions.Get(userID, sessionID)
	if err != nil {
		return Export{}, err
	}
	info, err := s.Sessions.Info(userID, sessionID)
	if err != nil {
		return Export{}, err
	}

	tpl := req.TemplateID
	if tpl == "" {
		tpl = sess.Template()
	}
	if _, err := render.Lookup(tpl); err != nil {
		return Export{}, err
	}

	doc, version := sess.Store().State()
	body, err := s.renderFile(ctx, req.Format, tpl, doc)
	if err != nil {
		return Export{}, err
	}

	id := uuid.NewString()
	fileName := fileNameFor(doc, tpl, req.Format)
	key, err := object.Key(storageNamespace, userID, id, fileName)
	if err != nil {
		return Export{}, err
	}
	size, err := s.Store.Put(ctx, key, req.Format.ContentType(), bytes.NewReader(body))
	if err != nil {
		return Export{}, fmt.Errorf("store export: %w", err)
	}

	exp = Export{
		ID:          id,
		UserID:      userID,
		CVID:        info.CVID,
		Format:      req.Format,
		TemplateID:  string(tpl),
		FileName:    fileName,
		ContentType: req.Format.ContentType(),
		SizeBytes:   size,
		StorageKey:  key,
		DocVersion:  version,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.Create(ctx, exp); err != nil {
		if derr := s.Store.Delete(ctx, key); derr != nil {
			telemetry.Warn("export.cleanup_failed", map[string]any{"export_id": id, "err": derr})
		}
		return Export{}, err
	}

	telemetry.Info("export.created", map[string]any{
		"export_id":  id,
		"session_id": sessionID,
		"user_id":    userID,
		"format":     string(req.Format),
		"template":   string(tpl),
		"size_bytes": size,
		"version":    version,
	})
	return exp, nil
}

// Open returns the metadata and contents of an export owned by userID.
func (s *Service) Open(ctx context.Context, userID, exportID string) (Export, io.ReadCloser, error) {
	if userID == "" || exportID == "" {
		return Export{}, nil, ErrInvalidInput
	}
	exp, err := s.Repo.GetByID(ctx, userID, exportID)
	if err != nil {
		return Export{}, nil, err
	}
	rc, err := s.Store.Open(ctx, exp.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Export{}, nil, ErrNotFound
		}
		return Export{}, nil, err
	}
	return exp, rc, nil
}

func (s *Service) renderFile(ctx context.Context, format Format, tpl render.TemplateID, doc model.Document) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(doc, "", "  ")
	}

	start := time.Now()
	var html bytes.Buffer
	if err := render.RenderHTML(&html, render.Input{Template: tpl, Document: doc}); err != nil {
		return nil, err
	}
	metrics.ObserveRender(string(tpl), time.Since(start))
	if format == FormatHTML {
		return html.Bytes(), nil
	}

	if s.PDF == nil {
		return nil, ErrUnsupported
	}
	return s.PDF.RenderPDF(ctx, html.Bytes())
}

// fileNameFor builds "<name>-<template>.<ext>" from the CV owner's name.
func fileNameFor(doc model.Document, tpl render.TemplateID, format Format) string {
	base := slug(doc.Personal.FullName())
	if base == "" {
		base = "cv"
	}
	return base + "-" + string(tpl) + "." + string(format)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
