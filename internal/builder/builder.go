package builder

import (
	"context"
	"sync"
	"time"

	"brand-builder/internal/domain"

	"github.com/bep/debounce"
	"go.uber.org/zap"
)

// Saver persists a document snapshot. Implemented by the document service.
type Saver interface {
	Save(ctx context.Context, doc *domain.Document) error
}

type Notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type Options struct {
	AutosaveDelay time.Duration
	SaveTimeout   time.Duration
	Saver         Saver
	Notifier      Notifier
	Logger        *zap.Logger
}

// Builder owns one open document and is the only sanctioned way to mutate it.
// Every effective mutation installs a new *domain.Document, so callers can
// detect changes by pointer comparison. Operations on ids that do not exist
// on the current page are no-ops.
type Builder struct {
	mu       sync.Mutex
	doc      *domain.Document
	current  int
	selected string
	editing  string
	draft    map[string]any

	version uint64
	saved   uint64
	closed  bool

	saveMu      sync.Mutex
	saver       Saver
	notifier    Notifier
	logger      *zap.Logger
	saveTimeout time.Duration
	debounced   func(f func())
}

func New(doc *domain.Document, opts Options) *Builder {
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = 1500 * time.Millisecond
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Builder{
		doc:         doc,
		saver:       opts.Saver,
		notifier:    opts.Notifier,
		logger:      opts.Logger.With(zap.String("document_id", doc.ID)),
		saveTimeout: opts.SaveTimeout,
		debounced:   debounce.New(opts.AutosaveDelay),
	}
}

// Document returns the current snapshot. Snapshots are never mutated in place.
func (b *Builder) Document() *domain.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doc
}

func (b *Builder) CurrentPage() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Selection returns the selected and the editing block id; either may be empty.
func (b *Builder) Selection() (selected, editing string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected, b.editing
}

func (b *Builder) Draft() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.draft == nil {
		return nil
	}
	out := make(map[string]any, len(b.draft))
	for k, v := range b.draft {
		out[k] = v
	}
	return out
}

func (b *Builder) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version != b.saved
}

// AddBlock inserts block with a fresh id after afterID, or at the end of the
// current page when afterID is empty or unknown. The new block is selected.
// Blocks whose content cannot be stored are not added.
func (b *Builder) AddBlock(block domain.Block, afterID string) string {
	if domain.ValidContent(block.Content) != nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endEditLocked()
	nb := block.Clone()
	nb.ID = domain.NewID()
	b.mutatePage(func(p *domain.Page) bool {
		at := len(p.Blocks)
		if afterID != "" {
			if i := p.IndexOf(afterID); i >= 0 {
				at = i + 1
			}
		}
		p.Blocks = insertBlock(p.Blocks, at, nb)
		return true
	})
	b.selected = nb.ID
	return nb.ID
}

// UpdateBlock shallow-merges the patches into the block's content and style.
// A patch that does not fit the block's content variant is rejected whole.
func (b *Builder) UpdateBlock(blockID string, contentPatch, stylePatch map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updateBlockLocked(blockID, contentPatch, stylePatch)
}

func (b *Builder) updateBlockLocked(blockID string, contentPatch, stylePatch map[string]any) error {
	if len(contentPatch) == 0 && len(stylePatch) == 0 {
		return nil
	}
	page := &b.doc.Pages[b.current]
	i := page.IndexOf(blockID)
	if i < 0 {
		return nil
	}
	updated := page.Blocks[i]
	if len(contentPatch) > 0 {
		content, err := domain.MergeContent(updated.Content, contentPatch)
		if err != nil {
			return err
		}
		updated.Content = content
	}
	if len(stylePatch) > 0 {
		style, err := domain.MergeStyle(updated.Style, stylePatch)
		if err != nil {
			return err
		}
		updated.Style = style
	}
	b.mutatePage(func(p *domain.Page) bool {
		p.Blocks[i] = updated
		return true
	})
	return nil
}

// DeleteBlock removes a block. A page never reaches zero blocks: removing the
// last one re-seeds the page with a default heading.
func (b *Builder) DeleteBlock(blockID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.doc.Pages[b.current].IndexOf(blockID)
	if i < 0 {
		return false
	}
	if b.editing == blockID {
		b.editing = ""
		b.draft = nil
	}
	if b.selected == blockID {
		b.selected = ""
	}
	docType := b.doc.Type
	b.mutatePage(func(p *domain.Page) bool {
		p.Blocks = append(p.Blocks[:i], p.Blocks[i+1:]...)
		if len(p.Blocks) == 0 {
			p.Blocks = []domain.Block{domain.SeedBlock(domain.SeedHeadingFor(docType))}
		}
		return true
	})
	return true
}

// DuplicateBlock inserts a deep copy right after the original and selects it.
func (b *Builder) DuplicateBlock(blockID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.doc.Pages[b.current].IndexOf(blockID) < 0 {
		return ""
	}
	b.endEditLocked()

	i := b.doc.Pages[b.current].IndexOf(blockID)
	cp := b.doc.Pages[b.current].Blocks[i].Clone()
	cp.ID = domain.NewID()
	b.mutatePage(func(p *domain.Page) bool {
		p.Blocks = insertBlock(p.Blocks, i+1, cp)
		return true
	})
	b.selected = cp.ID
	return cp.ID
}

// ReorderBlocks moves the block at from to index to. Both indices are clamped.
func (b *Builder) ReorderBlocks(from, to int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.doc.Pages[b.current].Blocks)
	from, to = clamp(from, n), clamp(to, n)
	if from == to {
		return false
	}
	b.mutatePage(func(p *domain.Page) bool {
		p.Blocks = moveBlock(p.Blocks, from, to)
		return true
	})
	return true
}

// SelectBlock selects a block, or clears the selection for an empty id.
// Selecting anything other than the block being edited ends that edit.
func (b *Builder) SelectBlock(blockID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if blockID == "" {
		b.endEditLocked()
		b.selected = ""
		return
	}
	if b.doc.Pages[b.current].IndexOf(blockID) < 0 {
		return
	}
	if b.editing != blockID {
		b.endEditLocked()
	}
	b.selected = blockID
}

// StartEdit puts a block into edit mode, committing any other block's pending
// edit first. Returns false when the block is not on the current page.
func (b *Builder) StartEdit(blockID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.doc.Pages[b.current].IndexOf(blockID) < 0 {
		return false
	}
	if b.editing == blockID {
		return true
	}
	b.endEditLocked()
	b.selected = blockID
	b.editing = blockID
	return true
}

// SetDraft records in-progress edits for the block being edited. They are
// committed when the edit ends.
func (b *Builder) SetDraft(patch map[string]any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.editing == "" {
		return false
	}
	if b.draft == nil {
		b.draft = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		b.draft[k] = v
	}
	return true
}

// EndEdit commits the pending draft and leaves the block selected.
func (b *Builder) EndEdit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endEditLocked()
}

func (b *Builder) endEditLocked() {
	if b.editing == "" {
		return
	}
	id, draft := b.editing, b.draft
	b.editing = ""
	b.draft = nil
	if err := b.updateBlockLocked(id, draft, nil); err != nil {
		b.logger.Warn("discarding draft that does not fit block", zap.String("block_id", id), zap.Error(err))
		b.notify("warning", "Some edits could not be applied to the block")
	}
}

// AddPage appends a seeded page (or slide) and navigates to it.
func (b *Builder) AddPage() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endEditLocked()
	page := domain.NewPageFor(b.doc.Type)
	b.mutateDoc(func(d *domain.Document) bool {
		d.Pages = append(d.Pages, page)
		return true
	})
	b.current = len(b.doc.Pages) - 1
	b.selected = ""
	return page.ID
}

// RemovePage removes a page. The only remaining page can not be removed.
func (b *Builder) RemovePage(pageID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.doc.Pages) <= 1 {
		return false
	}
	i := b.doc.PageIndex(pageID)
	if i < 0 {
		return false
	}
	if i == b.current {
		b.endEditLocked()
		b.selected = ""
	}
	b.mutateDoc(func(d *domain.Document) bool {
		d.Pages = append(d.Pages[:i], d.Pages[i+1:]...)
		return true
	})
	if i < b.current || b.current >= len(b.doc.Pages) {
		b.current--
	}
	return true
}

// ReorderPages moves a page; the current page follows its page.
func (b *Builder) ReorderPages(from, to int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.doc.Pages)
	from, to = clamp(from, n), clamp(to, n)
	if from == to {
		return false
	}
	currentID := b.doc.Pages[b.current].ID
	b.mutateDoc(func(d *domain.Document) bool {
		d.Pages = movePage(d.Pages, from, to)
		return true
	})
	b.current = b.doc.PageIndex(currentID)
	return true
}

func (b *Builder) SetCurrentPage(index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	index = clamp(index, len(b.doc.Pages))
	if index == b.current {
		return false
	}
	b.endEditLocked()
	b.selected = ""
	b.current = index
	return true
}

func (b *Builder) UpdateBackground(pageID string, bg domain.Background) bool {
	return b.mutatePageByID(pageID, func(p *domain.Page) {
		p.Background = bg
	})
}

func (b *Builder) UpdateTransition(pageID string, t domain.Transition) bool {
	return b.mutatePageByID(pageID, func(p *domain.Page) {
		p.Transition = &t
	})
}

func (b *Builder) UpdateNotes(pageID, notes string) bool {
	return b.mutatePageByID(pageID, func(p *domain.Page) {
		p.Notes = notes
	})
}

func (b *Builder) Rename(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if name == "" || name == b.doc.Name {
		return false
	}
	return b.mutateDoc(func(d *domain.Document) bool {
		d.Name = name
		return true
	})
}

func (b *Builder) mutatePageByID(pageID string, fn func(p *domain.Page)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.doc.PageIndex(pageID)
	if i < 0 {
		return false
	}
	return b.mutateDoc(func(d *domain.Document) bool {
		p := d.Pages[i]
		fn(&p)
		d.Pages[i] = p
		return true
	})
}

// mutatePage applies fn to a private copy of the current page's block list.
func (b *Builder) mutatePage(fn func(p *domain.Page) bool) bool {
	current := b.current
	return b.mutateDoc(func(d *domain.Document) bool {
		p := d.Pages[current]
		p.Blocks = append([]domain.Block(nil), p.Blocks...)
		if !fn(&p) {
			return false
		}
		d.Pages[current] = p
		return true
	})
}

// mutateDoc copies the document header and page slice, applies fn and, when fn
// reports a change, installs the copy and schedules an autosave.
func (b *Builder) mutateDoc(fn func(d *domain.Document) bool) bool {
	next := *b.doc
	next.Pages = append([]domain.Page(nil), b.doc.Pages...)
	if !fn(&next) {
		return false
	}
	next.Meta.UpdatedAt = time.Now().UTC()
	b.doc = &next
	b.version++
	if b.saver != nil && !b.closed {
		b.debounced(b.autosave)
	}
	return true
}

func (b *Builder) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), b.saveTimeout)
	defer cancel()
	if err := b.save(ctx); err != nil {
		b.notify("error", "Autosave failed, your changes are kept locally")
	}
}

// Flush saves the current snapshot immediately.
func (b *Builder) Flush(ctx context.Context) error {
	return b.save(ctx)
}

// save writes the latest snapshot. Saves are serialized; a save always picks
// the newest snapshot, so the last write wins.
func (b *Builder) save(ctx context.Context) error {
	if b.saver == nil {
		return nil
	}
	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	b.mu.Lock()
	doc, version, saved := b.doc, b.version, b.saved
	b.mu.Unlock()
	if version == saved {
		return nil
	}

	if err := b.saver.Save(ctx, doc); err != nil {
		b.logger.Error("save document", zap.Uint64("version", version), zap.Error(err))
		return err
	}

	b.mu.Lock()
	if version > b.saved {
		b.saved = version
	}
	b.mu.Unlock()
	b.logger.Debug("document saved", zap.Uint64("version", version))
	return nil
}

// Close stops autosave and writes any unsaved changes.
func (b *Builder) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.save(ctx)
}

func (b *Builder) notify(level, msg string) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(Notification{Level: level, Message: msg, At: time.Now().UTC()})
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func insertBlock(blocks []domain.Block, at int, nb domain.Block) []domain.Block {
	blocks = append(blocks, domain.Block{})
	copy(blocks[at+1:], blocks[at:])
	blocks[at] = nb
	return blocks
}

func moveBlock(blocks []domain.Block, from, to int) []domain.Block {
	moved := blocks[from]
	blocks = append(blocks[:from], blocks[from+1:]...)
	return insertBlock(blocks, to, moved)
}

func movePage(pages []domain.Page, from, to int) []domain.Page {
	moved := pages[from]
	pages = append(pages[:from], pages[from+1:]...)
	pages = append(pages, domain.Page{})
	copy(pages[to+1:], pages[to:])
	pages[to] = moved
	return pages
}
