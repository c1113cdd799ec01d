package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"cinreq/internal/domain/models"
	"cinreq/internal/domain/services"

	"gopkg.in/yaml.v3"
)

// documentFixture describes one document with its outline and optionally an
// active binding, as declared in the fixtures YAML file.
type documentFixture struct {
	Title        string                 `yaml:"title"`
	Description  *string                `yaml:"description"`
	DocumentType string                 `yaml:"document_type"`
	Content      map[string]interface{} `yaml:"content"`
	Sections     []sectionFixture       `yaml:"sections"`
	Binding      *bindingFixture        `yaml:"active_binding"`
}

// sectionFixture references its parent by section_number, so fixtures stay
// readable without hardcoded UUIDs.
type sectionFixture struct {
	SectionNumber string   `yaml:"section_number"`
	Title         string   `yaml:"title"`
	Parent        string   `yaml:"parent"`
	Order         int      `yaml:"order"`
	OpenQuestions []string `yaml:"open_questions"`
}

type bindingFixture struct {
	Section     string  `yaml:"section"`
	BindingType string  `yaml:"binding_type"`
	Note        *string `yaml:"note"`
}

type fixtureFile struct {
	Documents []documentFixture `yaml:"documents"`
}

func loadFixtures(path string) (*fixtureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fixtures fixtureFile
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	return &fixtures, nil
}

type seeder struct {
	docService     services.DocumentService
	sectionService services.SectionService
	bindingService services.BindingService
	userID         string
}

func (s *seeder) apply(ctx context.Context, fixtures *fixtureFile) error {
	for _, docFixture := range fixtures.Documents {
		if err := s.applyDocument(ctx, docFixture); err != nil {
			return fmt.Errorf("document %q: %w", docFixture.Title, err)
		}
	}
	return nil
}

func (s *seeder) applyDocument(ctx context.Context, fixture documentFixture) error {
	var content json.RawMessage
	if fixture.Content != nil {
		encoded, err := json.Marshal(fixture.Content)
		if err != nil {
			return fmt.Errorf("encode content: %w", err)
		}
		content = encoded
	}

	doc, err := s.docService.CreateDocument(ctx, &services.CreateDocumentRequest{
		Title:        fixture.Title,
		Description:  fixture.Description,
		DocumentType: models.DocumentType(fixture.DocumentType),
		Content:      content,
		UserID:       s.userID,
	})
	if err != nil {
		return err
	}
	log.Printf("  created document %s (%s)", doc.Title, doc.ID)

	// Sections must be created parents-first; fixtures reference parents by
	// section_number, so resolve as we go.
	sectionIDs := make(map[string]string, len(fixture.Sections))
	for _, secFixture := range fixture.Sections {
		var parentID *string
		if secFixture.Parent != "" {
			id, ok := sectionIDs[secFixture.Parent]
			if !ok {
				return fmt.Errorf("section %q references unknown parent %q", secFixture.SectionNumber, secFixture.Parent)
			}
			parentID = &id
		}

		section, err := s.sectionService.CreateSection(ctx, doc.ID, &services.CreateSectionRequest{
			SectionNumber: secFixture.SectionNumber,
			Title:         secFixture.Title,
			ParentID:      parentID,
			Order:         secFixture.Order,
			OpenQuestions: secFixture.OpenQuestions,
		})
		if err != nil {
			return fmt.Errorf("section %q: %w", secFixture.SectionNumber, err)
		}
		sectionIDs[secFixture.SectionNumber] = section.ID
	}
	log.Printf("  created %d sections", len(fixture.Sections))

	if fixture.Binding != nil {
		sectionID, ok := sectionIDs[fixture.Binding.Section]
		if !ok {
			return fmt.Errorf("binding references unknown section %q", fixture.Binding.Section)
		}

		_, err := s.bindingService.CreateBinding(ctx, doc.ID, sectionID, &services.CreateBindingRequest{
			BindingType: models.BindingType(fixture.Binding.BindingType),
			Note:        fixture.Binding.Note,
			UserID:      s.userID,
		})
		if err != nil {
			return fmt.Errorf("binding on %q: %w", fixture.Binding.Section, err)
		}
		log.Printf("  created active binding on section %s", fixture.Binding.Section)
	}

	return nil
}
