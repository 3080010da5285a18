package builder

type BlockState string

const (
	StateIdle     BlockState = "idle"
	StateSelected BlockState = "selected"
	StateEditing  BlockState = "editing"
)

const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// Rect is the rendered vertical extent of a block on the canvas.
type Rect struct {
	BlockID string  `json:"blockId"`
	Top     float64 `json:"top"`
	Height  float64 `json:"height"`
}

// Canvas turns pointer and keyboard events into builder operations. It holds
// no document state apart from an in-progress drag.
type Canvas struct {
	b        *Builder
	dragging string
}

func NewCanvas(b *Builder) *Canvas {
	return &Canvas{b: b}
}

func (c *Canvas) State(blockID string) BlockState {
	selected, editing := c.b.Selection()
	switch blockID {
	case editing:
		if editing != "" {
			return StateEditing
		}
	case selected:
		if selected != "" {
			return StateSelected
		}
	}
	return StateIdle
}

func (c *Canvas) Click(blockID string) {
	c.b.SelectBlock(blockID)
}

// ClickBackground clears the selection.
func (c *Canvas) ClickBackground() {
	c.b.SelectBlock("")
}

// DoubleClick selects the block and enters edit mode.
func (c *Canvas) DoubleClick(blockID string) bool {
	c.b.SelectBlock(blockID)
	return c.StartEdit(blockID)
}

// StartEdit enters edit mode; only the selected block may start editing.
func (c *Canvas) StartEdit(blockID string) bool {
	if c.State(blockID) == StateIdle {
		return false
	}
	return c.b.StartEdit(blockID)
}

// Input records in-progress text for the block being edited.
func (c *Canvas) Input(patch map[string]any) bool {
	return c.b.SetDraft(patch)
}

// KeyDown handles a key press and reports whether it was consumed.
func (c *Canvas) KeyDown(key string) bool {
	selected, editing := c.b.Selection()
	switch key {
	case KeyEscape:
		if editing != "" {
			c.b.EndEdit()
			return true
		}
		if selected != "" {
			c.b.SelectBlock("")
			return true
		}
	case KeyDelete, KeyBackspace:
		// while editing the key belongs to the text field
		if selected != "" && editing == "" {
			return c.b.DeleteBlock(selected)
		}
	}
	return false
}

// BeginDrag starts a reorder gesture from a block's drag handle.
func (c *Canvas) BeginDrag(blockID string) bool {
	doc := c.b.Document()
	if doc.Pages[c.b.CurrentPage()].IndexOf(blockID) < 0 {
		return false
	}
	c.dragging = blockID
	return true
}

func (c *Canvas) Dragging() string {
	return c.dragging
}

func (c *Canvas) CancelDrag() {
	c.dragging = ""
}

// Drop finishes the drag at vertical position y. The target index is the
// number of sibling blocks whose midpoint lies above y.
func (c *Canvas) Drop(y float64, layout []Rect) bool {
	id := c.dragging
	c.dragging = ""
	if id == "" {
		return false
	}
	from := c.b.Document().Pages[c.b.CurrentPage()].IndexOf(id)
	if from < 0 {
		return false
	}
	return c.b.ReorderBlocks(from, DropIndex(id, y, layout))
}

// DropIndex computes where a dragged block lands among its siblings.
func DropIndex(dragged string, y float64, layout []Rect) int {
	to := 0
	for _, r := range layout {
		if r.BlockID == dragged {
			continue
		}
		if y > r.Top+r.Height/2 {
			to++
		}
	}
	return to
}
