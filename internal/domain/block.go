package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockHeading    BlockType = "heading"
	BlockSubheading BlockType = "subheading"
	BlockParagraph  BlockType = "paragraph"
	BlockStatCard   BlockType = "stat-card"
	BlockSpecTable  BlockType = "spec-table"
	BlockBulletList BlockType = "bullet-list"
	BlockQuote      BlockType = "quote"
	BlockCallout    BlockType = "callout"
	BlockCTA        BlockType = "cta"
	BlockComparison BlockType = "comparison"
	BlockDivider    BlockType = "divider"
	BlockImage      BlockType = "image"
	BlockChart      BlockType = "chart"
	BlockTwoColumn  BlockType = "two-column"
	BlockSpacer     BlockType = "spacer"
)

// BlockTypes lists every block type in palette order.
var BlockTypes = []BlockType{
	BlockHeading, BlockSubheading, BlockParagraph, BlockStatCard, BlockSpecTable,
	BlockBulletList, BlockQuote, BlockCallout, BlockCTA, BlockComparison,
	BlockDivider, BlockImage, BlockChart, BlockTwoColumn, BlockSpacer,
}

// Content is the payload of a block. The concrete variant determines the
// block's type tag.
type Content interface {
	Type() BlockType
}

type Style struct {
	Align      string `json:"align,omitempty"`
	Color      string `json:"color,omitempty"`
	Size       string `json:"size,omitempty"`
	Background string `json:"background,omitempty"`
}

type Block struct {
	ID      string
	Content Content
	Style   *Style
}

func (b Block) Type() BlockType {
	if b.Content == nil {
		return ""
	}
	return b.Content.Type()
}

type blockJSON struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
	Style   *Style          `json:"style,omitempty"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	if b.Content == nil {
		return nil, fmt.Errorf("block %s has no content", b.ID)
	}
	raw, err := json.Marshal(b.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockJSON{ID: b.ID, Type: b.Content.Type(), Content: raw, Style: b.Style})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var aux blockJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var (
		content Content
		err     error
	)
	if len(aux.Content) == 0 || bytes.Equal(aux.Content, []byte("null")) {
		content, err = DefaultContent(aux.Type)
	} else {
		content, err = DecodeContent(aux.Type, aux.Content, false)
	}
	if err != nil {
		return err
	}
	b.ID = aux.ID
	b.Content = content
	b.Style = aux.Style
	return nil
}

// Clone deep-copies the block, keeping its id. It never fails.
func (b Block) Clone() Block {
	cp := Block{ID: b.ID}
	if b.Content != nil {
		raw, err := json.Marshal(b.Content)
		if err == nil {
			cp.Content, err = DecodeContent(b.Content.Type(), raw, false)
		}
		if err != nil {
			// content that cannot be encoded is shared, not copied
			cp.Content = b.Content
		}
	}
	if b.Style != nil {
		s := *b.Style
		cp.Style = &s
	}
	return cp
}

// DecodeContent decodes raw JSON into the variant selected by t. When strict
// is set, keys the variant does not know are rejected.
func DecodeContent(t BlockType, raw []byte, strict bool) (Content, error) {
	switch t {
	case BlockHeading:
		return decodeInto[HeadingContent](raw, strict)
	case BlockSubheading:
		return decodeInto[SubheadingContent](raw, strict)
	case BlockParagraph:
		return decodeInto[ParagraphContent](raw, strict)
	case BlockStatCard:
		return decodeInto[StatCardContent](raw, strict)
	case BlockSpecTable:
		return decodeInto[SpecTableContent](raw, strict)
	case BlockBulletList:
		return decodeInto[BulletListContent](raw, strict)
	case BlockQuote:
		return decodeInto[QuoteContent](raw, strict)
	case BlockCallout:
		return decodeInto[CalloutContent](raw, strict)
	case BlockCTA:
		return decodeInto[CTAContent](raw, strict)
	case BlockComparison:
		return decodeInto[ComparisonContent](raw, strict)
	case BlockDivider:
		return decodeInto[DividerContent](raw, strict)
	case BlockImage:
		return decodeInto[ImageContent](raw, strict)
	case BlockChart:
		return decodeInto[ChartContent](raw, strict)
	case BlockTwoColumn:
		return decodeInto[TwoColumnContent](raw, strict)
	case BlockSpacer:
		return decodeInto[SpacerContent](raw, strict)
	}
	return nil, fmt.Errorf("unknown block type %q", t)
}

func decodeInto[T Content](raw []byte, strict bool) (Content, error) {
	var c T
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", c.Type(), err)
	}
	return c, nil
}

// MergeContent shallow-merges patch into c. The result is always the same
// variant as c; keys that variant does not define are an error.
func MergeContent(c Content, patch map[string]any) (Content, error) {
	raw, err := mergeJSON(c, patch)
	if err != nil {
		return nil, err
	}
	return DecodeContent(c.Type(), raw, true)
}

// MergeStyle shallow-merges patch into s, which may be nil.
func MergeStyle(s *Style, patch map[string]any) (*Style, error) {
	var base Style
	if s != nil {
		base = *s
	}
	raw, err := mergeJSON(base, patch)
	if err != nil {
		return nil, err
	}
	var out Style
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode style: %w", err)
	}
	return &out, nil
}

func mergeJSON(base any, patch map[string]any) ([]byte, error) {
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("patch field %q: %w", k, err)
		}
		fields[k] = enc
	}
	return json.Marshal(fields)
}
