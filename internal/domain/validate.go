package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoPages     = errors.New("document must have at least one page")
	ErrEmptyPage   = errors.New("every page must have at least one block")
	ErrMissingID   = errors.New("pages and blocks must have an id")
	ErrDuplicateID = errors.New("page and block ids must be unique")
	ErrBadContent  = errors.New("block content is invalid")
)

// ValidContent reports whether c can be stored. Content that does not
// encode, such as a chart value of NaN, is rejected.
func ValidContent(c Content) error {
	if c == nil {
		return fmt.Errorf("%w: missing", ErrBadContent)
	}
	if _, err := json.Marshal(c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadContent, c.Type(), err)
	}
	return nil
}

// Validate checks the structural invariants of a document: at least one
// page, no empty page, and ids unique across every page and block.
func (d *Document) Validate() error {
	if len(d.Pages) == 0 {
		return ErrNoPages
	}
	seen := make(map[string]struct{})
	claim := func(id string) error {
		if id == "" {
			return ErrMissingID
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		return nil
	}
	for i := range d.Pages {
		page := &d.Pages[i]
		if err := claim(page.ID); err != nil {
			return err
		}
		if len(page.Blocks) == 0 {
			return fmt.Errorf("%w: page %d", ErrEmptyPage, i+1)
		}
		for j := range page.Blocks {
			if err := claim(page.Blocks[j].ID); err != nil {
				return err
			}
			if err := ValidContent(page.Blocks[j].Content); err != nil {
				return err
			}
		}
	}
	return nil
}

// Repair brings a document back within its invariants in place. Missing or
// repeated ids are replaced, blocks with unusable content are dropped and
// empty pages are re-seeded. It reports whether anything changed.
func (d *Document) Repair() bool {
	changed := false
	if len(d.Pages) == 0 {
		d.Pages = []Page{NewPageFor(d.Type)}
		return true
	}
	seen := make(map[string]struct{})
	fresh := func(id *string) {
		if _, dup := seen[*id]; *id == "" || dup {
			*id = NewID()
			changed = true
		}
		seen[*id] = struct{}{}
	}
	for i := range d.Pages {
		page := &d.Pages[i]
		fresh(&page.ID)

		kept := page.Blocks[:0]
		for _, b := range page.Blocks {
			if ValidContent(b.Content) != nil {
				changed = true
				continue
			}
			fresh(&b.ID)
			kept = append(kept, b)
		}
		page.Blocks = kept
		if len(page.Blocks) == 0 {
			seed := SeedBlock(SeedHeadingFor(d.Type))
			seen[seed.ID] = struct{}{}
			page.Blocks = append(page.Blocks, seed)
			changed = true
		}
	}
	return changed
}
