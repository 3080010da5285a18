package builder

import (
	"testing"

	"brand-builder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvas_ClickSelectsDoubleClickEdits(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	id := blockIDs(b)[0]

	assert.Equal(t, StateIdle, c.State(id))
	c.Click(id)
	assert.Equal(t, StateSelected, c.State(id))
	assert.True(t, c.DoubleClick(id))
	assert.Equal(t, StateEditing, c.State(id))
}

func TestCanvas_StartEditRequiresSelection(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	id := blockIDs(b)[0]

	assert.False(t, c.StartEdit(id))
	assert.Equal(t, StateIdle, c.State(id))
}

func TestCanvas_EscapeCommitsAndKeepsSelection(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	id := blockIDs(b)[0]
	c.DoubleClick(id)
	c.Input(map[string]any{"text": "Laser distance sensors"})

	assert.True(t, c.KeyDown(KeyEscape))

	assert.Equal(t, StateSelected, c.State(id))
	assert.Equal(t, "Laser distance sensors", b.Document().Pages[0].Blocks[0].Content.(domain.HeadingContent).Text)

	assert.True(t, c.KeyDown(KeyEscape))
	assert.Equal(t, StateIdle, c.State(id))
	assert.False(t, c.KeyDown(KeyEscape))
}

func TestCanvas_DeleteOnlyWhenSelectedNotEditing(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	id := b.AddBlock(paragraph("x"), "")
	c.DoubleClick(id)

	assert.False(t, c.KeyDown(KeyBackspace), "backspace while editing belongs to the text")
	assert.Contains(t, blockIDs(b), id)

	c.KeyDown(KeyEscape)
	assert.True(t, c.KeyDown(KeyDelete))
	assert.NotContains(t, blockIDs(b), id)
	assert.Equal(t, StateIdle, c.State(id))
}

func TestCanvas_EditingMovesBetweenBlocks(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	a := blockIDs(b)[0]
	other := b.AddBlock(paragraph("b"), "")

	c.DoubleClick(a)
	c.Input(map[string]any{"text": "A text"})
	c.DoubleClick(other)

	assert.Equal(t, StateIdle, c.State(a))
	assert.Equal(t, StateEditing, c.State(other))
	assert.Equal(t, "A text", b.Document().Pages[0].Blocks[0].Content.(domain.HeadingContent).Text)
}

func TestCanvas_DragReorder(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	a := blockIDs(b)[0]
	bb := b.AddBlock(paragraph("b"), "")
	cc := b.AddBlock(paragraph("c"), "")
	layout := []Rect{
		{BlockID: a, Top: 0, Height: 100},
		{BlockID: bb, Top: 100, Height: 100},
		{BlockID: cc, Top: 200, Height: 100},
	}

	require.True(t, c.BeginDrag(a))
	assert.Equal(t, a, c.Dragging())
	assert.True(t, c.Drop(260, layout))

	assert.Equal(t, []string{bb, cc, a}, blockIDs(b))
	assert.Empty(t, c.Dragging())
}

func TestCanvas_DropWithoutDrag(t *testing.T) {
	b := newCaseStudy(t)
	c := NewCanvas(b)
	assert.False(t, c.Drop(10, nil))
	assert.False(t, c.BeginDrag("missing"))
}

func TestDropIndex(t *testing.T) {
	layout := []Rect{
		{BlockID: "a", Top: 0, Height: 100},
		{BlockID: "b", Top: 100, Height: 100},
		{BlockID: "c", Top: 200, Height: 100},
	}

	assert.Equal(t, 0, DropIndex("c", 10, layout))
	assert.Equal(t, 1, DropIndex("c", 120, layout))
	assert.Equal(t, 1, DropIndex("a", 160, layout))
	assert.Equal(t, 2, DropIndex("a", 299, layout))
}
