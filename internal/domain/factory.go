package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	seedSlideHeading = "New Slide"
	seedPageHeading  = "New Page"
)

// NewID returns a fresh random identifier for documents, pages and blocks.
func NewID() string {
	return uuid.NewString()
}

func DefaultBackground() Background {
	return Background{Type: BackgroundSolid, Value: "#ffffff"}
}

func DefaultTransition() *Transition {
	return &Transition{Type: TransitionFade, DurationMs: 300}
}

// SeedBlock is the heading every new page or slide starts with.
func SeedBlock(text string) Block {
	return Block{ID: NewID(), Content: HeadingContent{Text: text, Level: 1}}
}

func NewPage() Page {
	return Page{
		ID:         NewID(),
		Blocks:     []Block{SeedBlock(seedPageHeading)},
		Background: DefaultBackground(),
	}
}

func NewSlide() Page {
	return Page{
		ID:         NewID(),
		Blocks:     []Block{SeedBlock(seedSlideHeading)},
		Background: DefaultBackground(),
		Transition: DefaultTransition(),
	}
}

// NewPageFor returns an empty page or slide depending on the document type.
func NewPageFor(t DocumentType) Page {
	if t == DocumentPresentation {
		return NewSlide()
	}
	return NewPage()
}

// SeedHeadingFor returns the heading text seeded into a new page of t.
func SeedHeadingFor(t DocumentType) string {
	if t == DocumentPresentation {
		return seedSlideHeading
	}
	return seedPageHeading
}

func NewDocument(t DocumentType) *Document {
	now := time.Now().UTC()
	name := "Untitled Case Study"
	if t == DocumentPresentation {
		name = "Untitled Presentation"
	}
	return &Document{
		ID:    NewID(),
		Name:  name,
		Type:  t,
		Pages: []Page{NewPageFor(t)},
		Meta:  Meta{CreatedAt: now, UpdatedAt: now},
	}
}
