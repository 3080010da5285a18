package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument_CaseStudy(t *testing.T) {
	doc := NewDocument(DocumentCaseStudy)

	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	require.Len(t, page.Blocks, 1)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, DocumentCaseStudy, doc.Type)
	assert.Equal(t, BlockHeading, page.Blocks[0].Type())
	assert.Equal(t, HeadingContent{Text: "New Page", Level: 1}, page.Blocks[0].Content)
	assert.Equal(t, BackgroundSolid, page.Background.Type)
	assert.Nil(t, page.Transition)
}

func TestNewDocument_PresentationSeedsSlide(t *testing.T) {
	doc := NewDocument(DocumentPresentation)

	require.Len(t, doc.Pages, 1)
	slide := doc.Pages[0]
	assert.Equal(t, HeadingContent{Text: "New Slide", Level: 1}, slide.Blocks[0].Content)
	require.NotNil(t, slide.Transition)
	assert.Equal(t, TransitionFade, slide.Transition.Type)
}

func TestNewSlide_UniqueIDs(t *testing.T) {
	a, b := NewSlide(), NewSlide()
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Blocks[0].ID, b.Blocks[0].ID)
}

func TestBlockJSON_DispatchesOnType(t *testing.T) {
	raw := `{"id":"b1","type":"stat-card","content":{"stat":{"value":"99.5%","label":"Precision"}},"style":{"align":"center"}}`

	var b Block
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, BlockStatCard, b.Type())
	assert.Equal(t, StatCardContent{Stat: Stat{Value: "99.5%", Label: "Precision"}}, b.Content)
	require.NotNil(t, b.Style)
	assert.Equal(t, "center", b.Style.Align)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestBlockJSON_MissingContentUsesDefault(t *testing.T) {
	var b Block
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"spacer"}`), &b))
	assert.Equal(t, SpacerContent{Height: 32}, b.Content)
}

func TestBlockJSON_UnknownType(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"id":"x","type":"marquee","content":{}}`), &b)
	assert.Error(t, err)
}

func TestDefaultContent_CoversEveryType(t *testing.T) {
	for _, bt := range BlockTypes {
		c, err := DefaultContent(bt)
		require.NoError(t, err, bt)
		assert.Equal(t, bt, c.Type())
	}
}

func TestMergeContent(t *testing.T) {
	c := HeadingContent{Text: "Old", Level: 2}

	merged, err := MergeContent(c, map[string]any{"text": "New"})
	require.NoError(t, err)
	assert.Equal(t, HeadingContent{Text: "New", Level: 2}, merged)

	_, err = MergeContent(c, map[string]any{"stat": map[string]any{"value": "1"}})
	assert.Error(t, err, "keys outside the variant are rejected")

	_, err = MergeContent(c, map[string]any{"level": "two"})
	assert.Error(t, err)
}

func TestMergeStyle_NilBase(t *testing.T) {
	s, err := MergeStyle(nil, map[string]any{"color": "#E30613"})
	require.NoError(t, err)
	assert.Equal(t, &Style{Color: "#E30613"}, s)
}

func TestBlockClone_IsDeep(t *testing.T) {
	orig := Block{
		ID:      "b",
		Content: BulletListContent{Items: []string{"a", "b"}},
		Style:   &Style{Align: "left"},
	}

	cp := orig.Clone()
	cp.Content.(BulletListContent).Items[0] = "changed"
	cp.Style.Align = "right"

	assert.Equal(t, "a", orig.Content.(BulletListContent).Items[0])
	assert.Equal(t, "left", orig.Style.Align)
}

func TestDocumentClone_IsDeep(t *testing.T) {
	doc := NewDocument(DocumentPresentation)
	cp := doc.Clone()

	cp.Pages[0].Transition.Type = TransitionZoom
	cp.Pages[0].Blocks = append(cp.Pages[0].Blocks, SeedBlock("x"))

	assert.Equal(t, TransitionFade, doc.Pages[0].Transition.Type)
	assert.Len(t, doc.Pages[0].Blocks, 1)
}
