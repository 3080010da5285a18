package domain

import (
	"time"
)

type DocumentType string

const (
	DocumentCaseStudy    DocumentType = "case-study"
	DocumentPresentation DocumentType = "presentation"
)

func (t DocumentType) Valid() bool {
	return t == DocumentCaseStudy || t == DocumentPresentation
}

type Meta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    string    `json:"author,omitempty"`
}

// Document is a case study (pages) or a presentation (slides).
type Document struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  DocumentType `json:"type"`
	Pages []Page       `json:"pages"`
	Meta  Meta         `json:"meta"`
}

type BackgroundType string

const (
	BackgroundSolid    BackgroundType = "solid"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundImage    BackgroundType = "image"
	BackgroundPattern  BackgroundType = "pattern"
)

type Overlay struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

type Background struct {
	Type    BackgroundType `json:"type"`
	Value   string         `json:"value"`
	Overlay *Overlay       `json:"overlay,omitempty"`
}

type TransitionType string

const (
	TransitionNone  TransitionType = "none"
	TransitionFade  TransitionType = "fade"
	TransitionSlide TransitionType = "slide"
	TransitionZoom  TransitionType = "zoom"
)

type Transition struct {
	Type       TransitionType `json:"type"`
	DurationMs int            `json:"durationMs"`
}

// Page is an ordered container of blocks. Slides additionally carry a
// transition and speaker notes.
type Page struct {
	ID         string      `json:"id"`
	Blocks     []Block     `json:"blocks"`
	Background Background  `json:"background"`
	Transition *Transition `json:"transition,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

func (p *Page) IndexOf(blockID string) int {
	for i := range p.Blocks {
		if p.Blocks[i].ID == blockID {
			return i
		}
	}
	return -1
}

func (d *Document) PageIndex(pageID string) int {
	for i := range d.Pages {
		if d.Pages[i].ID == pageID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	cp := *d
	cp.Pages = make([]Page, len(d.Pages))
	for i := range d.Pages {
		cp.Pages[i] = d.Pages[i].Clone()
	}
	return &cp
}

func (p Page) Clone() Page {
	cp := p
	cp.Blocks = make([]Block, len(p.Blocks))
	for i := range p.Blocks {
		cp.Blocks[i] = p.Blocks[i].Clone()
	}
	if p.Background.Overlay != nil {
		o := *p.Background.Overlay
		cp.Background.Overlay = &o
	}
	if p.Transition != nil {
		t := *p.Transition
		cp.Transition = &t
	}
	return cp
}
