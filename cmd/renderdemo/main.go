package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cv-builder/cv/model"
	"cv-builder/cv/render"
	"cv-builder/cv/schema"
)

const (
	envPrefix   = "CVCTL"
	allTemplate = "all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "renderdemo: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd reads --template, --in and --out, or CVCTL_TEMPLATE, CVCTL_IN and CVCTL_OUT.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "renderdemo",
		Short:         "Render a CV document to standalone HTML files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), v.GetString("template"), v.GetString("in"), v.GetString("out"))
		},
	}
	cmd.Flags().String("template", allTemplate, "template to render: modern, minimal, creative or all")
	cmd.Flags().String("in", "", "CV JSON to render (default: built-in sample)")
	cmd.Flags().String("out", "./out", "output directory")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

func run(stdout io.Writer, template, inPath, outDir string) error {
	templates, err := selectTemplates(template)
	if err != nil {
		return err
	}
	doc, err := loadDocument(inPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for _, id := range templates {
		var buf bytes.Buffer
		if err := render.RenderHTML(&buf, render.Input{Template: id, Document: doc}); err != nil {
			return fmt.Errorf("render %s: %w", id, err)
		}
		if err := validateRendered(buf.Bytes(), doc); err != nil {
			return fmt.Errorf("render %s: %w", id, err)
		}
		path := filepath.Join(outDir, "cv-"+string(id)+".html")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "OK: wrote %s\n", path)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "cv.json"), payload, 0o644)
}

func selectTemplates(raw string) ([]render.TemplateID, error) {
	if strings.EqualFold(strings.TrimSpace(raw), allTemplate) {
		return render.Templates(), nil
	}
	id, err := render.ParseTemplateID(raw)
	if err != nil {
		return nil, err
	}
	return []render.TemplateID{id}, nil
}

func loadDocument(path string) (model.Document, error) {
	if path == "" {
		return sampleDocument(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, err
	}
	doc, err := schema.Decode(raw)
	if err != nil {
		return model.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// validateRendered checks the output is a full page that shows the CV owner.
func validateRendered(page []byte, doc model.Document) error {
	if !bytes.HasPrefix(bytes.TrimSpace(page), []byte("<!DOCTYPE html>")) {
		return fmt.Errorf("output is not a standalone html document")
	}
	if name := doc.Personal.FullName(); name != "" && !bytes.Contains(page, []byte(name)) {
		return fmt.Errorf("output is missing %q", name)
	}
	return nil
}

func sampleDocument() model.Document {
	return model.Document{
		Personal: model.PersonalInfo{
			FirstName: "Jordan",
			LastName:  "Lee",
			Title:     "Senior Backend Engineer",
			Email:     "jordan.lee@example.com",
			Phone:     "+1-555-0102",
			Location:  "Austin, TX",
			Website:   "https://github.com/jordanlee",
			Summary:   "Backend engineer with 8+ years of experience building resilient APIs and data services.",
		},
		Experience: []model.Experience{
			{
				ID:          "exp-1",
				Title:       "Senior Backend Engineer",
				Company:     "Acme Cloud",
				Location:    "Austin, TX",
				StartDate:   "2021-03",
				Current:     true,
				Description: "Led the move of billing services to event-driven processing.",
			},
			{
				ID:          "exp-2",
				Title:       "Backend Engineer",
				Company:     "Northwind Data",
				Location:    "Remote",
				StartDate:   "2017-06",
				EndDate:     "2021-02",
				Description: "Built ingestion pipelines and the public reporting API.",
			},
		},
		Education: []model.Education{
			{
				ID:          "edu-1",
				Degree:      "BSc Computer Science",
				Institution: "University of Texas",
				StartDate:   "2012-09",
				EndDate:     "2016-05",
			},
		},
		Skills: []model.Skill{
			{ID: "skill-1", Name: "Go", Level: 5},
			{ID: "skill-2", Name: "PostgreSQL", Level: 4},
			{ID: "skill-3", Name: "Kubernetes", Level: 3},
		},
	}
}
