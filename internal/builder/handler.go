package builder

import (
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	defError "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes mounts the session routes on rg, which must already carry
// the auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	sessions.POST("", h.Open)

	s := sessions.Group("/:session")
	s.GET("", h.Show)
	s.DELETE("", h.Close)
	s.POST("/save", h.Save)

	s.POST("/blocks", h.AddBlock)
	s.PATCH("/blocks/:block", h.UpdateBlock)
	s.DELETE("/blocks/:block", h.DeleteBlock)
	s.POST("/blocks/:block/duplicate", h.DuplicateBlock)
	s.POST("/reorder-blocks", h.ReorderBlocks)

	s.POST("/select", h.Select)
	s.POST("/edit/start", h.StartEdit)
	s.PATCH("/edit/draft", h.SetDraft)
	s.POST("/edit/end", h.EndEdit)

	s.POST("/pages", h.AddPage)
	s.DELETE("/pages/:page", h.RemovePage)
	s.POST("/reorder-pages", h.ReorderPages)
	s.PUT("/current-page", h.SetCurrentPage)
	s.PUT("/pages/:page/background", h.UpdateBackground)
	s.PUT("/pages/:page/transition", h.UpdateTransition)
	s.PUT("/pages/:page/notes", h.UpdateNotes)
	s.PUT("/name", h.Rename)

	s.POST("/canvas", h.CanvasEvent)
}

// SessionView is the state a client needs to render the builder.
type SessionView struct {
	Session       string           `json:"session"`
	Document      *domain.Document `json:"document"`
	CurrentPage   int              `json:"currentPage"`
	Selected      string           `json:"selected,omitempty"`
	Editing       string           `json:"editing,omitempty"`
	Draft         map[string]any   `json:"draft,omitempty"`
	Dragging      string           `json:"dragging,omitempty"`
	Dirty         bool             `json:"dirty"`
	Changed       bool             `json:"changed"`
	Notifications []Notification   `json:"notifications"`
}

func view(s *Session, b *Builder, c *Canvas, changed bool) SessionView {
	selected, editing := b.Selection()
	notes := s.Notifications()
	if notes == nil {
		notes = []Notification{}
	}
	return SessionView{
		Session:       s.ID,
		Document:      b.Document(),
		CurrentPage:   b.CurrentPage(),
		Selected:      selected,
		Editing:       editing,
		Draft:         b.Draft(),
		Dragging:      c.Dragging(),
		Dirty:         b.Dirty(),
		Changed:       changed,
		Notifications: notes,
	}
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	s, err := h.registry.Get(c.GetUint64("user_id"), c.Param("session"))
	if err != nil {
		c.Error(errors.NotFound("Builder session not found", err))
		return nil, false
	}
	return s, true
}

// mutate runs op under the session lock and answers with the new state.
func (h *Handler) mutate(c *gin.Context, op func(b *Builder, cv *Canvas) bool) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var v SessionView
	s.Do(func(b *Builder, cv *Canvas) {
		changed := op(b, cv)
		v = view(s, b, cv, changed)
	})
	c.JSON(http.StatusOK, v)
}

func bind(c *gin.Context, form any) bool {
	if err := c.ShouldBindJSON(form); err != nil {
		c.Error(errors.NewValidationError(err))
		return false
	}
	return true
}

type OpenRequest struct {
	Type       domain.DocumentType `json:"type" binding:"required,oneof=case-study presentation"`
	DocumentID string              `json:"documentId"`
}

func (h *Handler) Open(c *gin.Context) {
	var form OpenRequest
	if !bind(c, &form) {
		return
	}
	s, err := h.registry.Open(c.Request.Context(), c.GetUint64("user_id"), form.Type, form.DocumentID)
	if err != nil {
		c.Error(err)
		return
	}
	var v SessionView
	s.Do(func(b *Builder, cv *Canvas) { v = view(s, b, cv, false) })
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) Show(c *gin.Context) {
	h.mutate(c, func(*Builder, *Canvas) bool { return false })
}

func (h *Handler) Close(c *gin.Context) {
	err := h.registry.Close(c.Request.Context(), c.GetUint64("user_id"), c.Param("session"))
	if defError.Is(err, ErrSessionNotFound) {
		c.Error(errors.NotFound("Builder session not found", err))
		return
	}
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// Save writes the document now instead of waiting for autosave.
func (h *Handler) Save(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var (
		v   SessionView
		err error
	)
	s.Do(func(b *Builder, cv *Canvas) {
		err = b.Flush(c.Request.Context())
		v = view(s, b, cv, false)
	})
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, v)
}

type AddBlockRequest struct {
	Block   domain.Block `json:"block"`
	AfterID string       `json:"afterId"`
}

func (h *Handler) AddBlock(c *gin.Context) {
	var form AddBlockRequest
	if !bind(c, &form) {
		return
	}
	if form.Block.Content == nil {
		c.Error(errors.UnprocessableEntity("Block type is required", nil))
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.AddBlock(form.Block, form.AfterID) != ""
	})
}

type UpdateBlockRequest struct {
	Content map[string]any `json:"content"`
	Style   map[string]any `json:"style"`
}

func (h *Handler) UpdateBlock(c *gin.Context) {
	var form UpdateBlockRequest
	if !bind(c, &form) {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	var (
		v   SessionView
		err error
	)
	s.Do(func(b *Builder, cv *Canvas) {
		before := b.Document()
		err = b.UpdateBlock(c.Param("block"), form.Content, form.Style)
		v = view(s, b, cv, b.Document() != before)
	})
	if err != nil {
		c.Error(errors.UnprocessableEntity("Patch does not fit the block", err))
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.DeleteBlock(c.Param("block"))
	})
}

func (h *Handler) DuplicateBlock(c *gin.Context) {
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.DuplicateBlock(c.Param("block")) != ""
	})
}

type ReorderRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

func (h *Handler) ReorderBlocks(c *gin.Context) {
	var form ReorderRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.ReorderBlocks(*form.From, *form.To)
	})
}

type BlockRequest struct {
	BlockID string `json:"blockId"`
}

// Select selects a block; an empty id clears the selection.
func (h *Handler) Select(c *gin.Context) {
	var form BlockRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		b.SelectBlock(form.BlockID)
		return false
	})
}

func (h *Handler) StartEdit(c *gin.Context) {
	var form BlockRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.StartEdit(form.BlockID)
	})
}

type DraftRequest struct {
	Patch map[string]any `json:"patch" binding:"required"`
}

func (h *Handler) SetDraft(c *gin.Context) {
	var form DraftRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.SetDraft(form.Patch)
	})
}

func (h *Handler) EndEdit(c *gin.Context) {
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		before := b.Document()
		b.EndEdit()
		return b.Document() != before
	})
}

func (h *Handler) AddPage(c *gin.Context) {
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.AddPage() != ""
	})
}

func (h *Handler) RemovePage(c *gin.Context) {
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.RemovePage(c.Param("page"))
	})
}

func (h *Handler) ReorderPages(c *gin.Context) {
	var form ReorderRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.ReorderPages(*form.From, *form.To)
	})
}

type CurrentPageRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (h *Handler) SetCurrentPage(c *gin.Context) {
	var form CurrentPageRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.SetCurrentPage(*form.Index)
	})
}

func (h *Handler) UpdateBackground(c *gin.Context) {
	var form domain.Background
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.UpdateBackground(c.Param("page"), form)
	})
}

func (h *Handler) UpdateTransition(c *gin.Context) {
	var form domain.Transition
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.UpdateTransition(c.Param("page"), form)
	})
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	var form NotesRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.UpdateNotes(c.Param("page"), form.Notes)
	})
}

type RenameRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func (h *Handler) Rename(c *gin.Context) {
	var form RenameRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, _ *Canvas) bool {
		return b.Rename(form.Name)
	})
}

const (
	EventClick       = "click"
	EventBackground  = "background"
	EventDoubleClick = "dblclick"
	EventInput       = "input"
	EventKeyDown     = "keydown"
	EventDragStart   = "dragstart"
	EventDrop        = "drop"
	EventDragCancel  = "dragcancel"
)

// CanvasEventRequest is one pointer or keyboard event from the canvas.
type CanvasEventRequest struct {
	Event   string         `json:"event" binding:"required,oneof=click background dblclick input keydown dragstart drop dragcancel"`
	BlockID string         `json:"blockId"`
	Key     string         `json:"key"`
	Patch   map[string]any `json:"patch"`
	Y       float64        `json:"y"`
	Layout  []Rect         `json:"layout"`
}

func (h *Handler) CanvasEvent(c *gin.Context) {
	var form CanvasEventRequest
	if !bind(c, &form) {
		return
	}
	h.mutate(c, func(b *Builder, cv *Canvas) bool {
		switch form.Event {
		case EventClick:
			cv.Click(form.BlockID)
		case EventBackground:
			cv.ClickBackground()
		case EventDoubleClick:
			return cv.DoubleClick(form.BlockID)
		case EventInput:
			return cv.Input(form.Patch)
		case EventKeyDown:
			return cv.KeyDown(form.Key)
		case EventDragStart:
			return cv.BeginDrag(form.BlockID)
		case EventDrop:
			return cv.Drop(form.Y, form.Layout)
		case EventDragCancel:
			cv.CancelDrag()
		}
		return false
	})
}
