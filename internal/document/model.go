package document

import (
	"brand-builder/internal/domain"
	"fmt"
	"time"
)

const (
	TableCaseStudies   = "visual_case_studies"
	TablePresentations = "presentations"
)

// Record is the row shape shared by both document tables. Pages are stored
// as a JSON column; blocks carry their own type tag inside it.
type Record struct {
	ID           string        `gorm:"primaryKey;size:36"`
	UserID       uint64        `gorm:"index"`
	Name         string        `gorm:"size:255"`
	Pages        []domain.Page `gorm:"serializer:json"`
	Author       string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableFor maps a document type to the table its rows live in.
func TableFor(t domain.DocumentType) (string, error) {
	switch t {
	case domain.DocumentCaseStudy:
		return TableCaseStudies, nil
	case domain.DocumentPresentation:
		return TablePresentations, nil
	}
	return "", fmt.Errorf("unknown document type %q", t)
}

func (r *Record) ToDocument(t domain.DocumentType) *domain.Document {
	return &domain.Document{
		ID:    r.ID,
		Name:  r.Name,
		Type:  t,
		Pages: r.Pages,
		Meta: domain.Meta{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			Author:    r.Author,
		},
	}
}

func recordFrom(userID uint64, doc *domain.Document) *Record {
	return &Record{
		ID:        doc.ID,
		UserID:    userID,
		Name:      doc.Name,
		Pages:     doc.Pages,
		Author:    doc.Meta.Author,
		CreatedAt: doc.Meta.CreatedAt,
		UpdatedAt: doc.Meta.UpdatedAt,
	}
}

// Summary is the list view of a document, without its pages.
type Summary struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         domain.DocumentType `json:"type"`
	PageCount    int                 `json:"pageCount"`
	ThumbnailURL string              `json:"thumbnailUrl,omitempty"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type DocumentsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type PaginatedDocuments struct {
	Data []Summary     `json:"data"`
	Meta DocumentsMeta `json:"meta"`
}
