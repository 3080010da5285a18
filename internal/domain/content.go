package domain

import "fmt"

type HeadingContent struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

type SubheadingContent struct {
	Text string `json:"text"`
}

type ParagraphContent struct {
	Text string `json:"text"`
}

type Stat struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type StatCardContent struct {
	Stat        Stat   `json:"stat"`
	Description string `json:"description,omitempty"`
}

type SpecRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type SpecTableContent struct {
	Title string    `json:"title,omitempty"`
	Rows  []SpecRow `json:"rows"`
}

type BulletListContent struct {
	Items []string `json:"items"`
}

type QuoteContent struct {
	Text        string `json:"text"`
	Attribution string `json:"attribution,omitempty"`
}

type CalloutContent struct {
	Text    string `json:"text"`
	Variant string `json:"variant,omitempty"`
}

type CTAContent struct {
	Text        string `json:"text"`
	ButtonLabel string `json:"buttonLabel"`
	URL         string `json:"url,omitempty"`
}

type ComparisonSide struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type ComparisonContent struct {
	Left  ComparisonSide `json:"left"`
	Right ComparisonSide `json:"right"`
}

type DividerContent struct {
	Variant string `json:"variant,omitempty"`
}

type ImageContent struct {
	Src     string `json:"src"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type ChartContent struct {
	ChartType string       `json:"chartType"`
	Title     string       `json:"title,omitempty"`
	Data      []ChartPoint `json:"data"`
}

type TwoColumnContent struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type SpacerContent struct {
	Height int `json:"height"`
}

func (HeadingContent) Type() BlockType    { return BlockHeading }
func (SubheadingContent) Type() BlockType { return BlockSubheading }
func (ParagraphContent) Type() BlockType  { return BlockParagraph }
func (StatCardContent) Type() BlockType   { return BlockStatCard }
func (SpecTableContent) Type() BlockType  { return BlockSpecTable }
func (BulletListContent) Type() BlockType { return BlockBulletList }
func (QuoteContent) Type() BlockType      { return BlockQuote }
func (CalloutContent) Type() BlockType    { return BlockCallout }
func (CTAContent) Type() BlockType        { return BlockCTA }
func (ComparisonContent) Type() BlockType { return BlockComparison }
func (DividerContent) Type() BlockType    { return BlockDivider }
func (ImageContent) Type() BlockType      { return BlockImage }
func (ChartContent) Type() BlockType      { return BlockChart }
func (TwoColumnContent) Type() BlockType  { return BlockTwoColumn }
func (SpacerContent) Type() BlockType     { return BlockSpacer }

// DefaultContent returns the placeholder content a freshly inserted block of
// type t starts with.
func DefaultContent(t BlockType) (Content, error) {
	switch t {
	case BlockHeading:
		return HeadingContent{Text: "Heading", Level: 2}, nil
	case BlockSubheading:
		return SubheadingContent{Text: "Subheading"}, nil
	case BlockParagraph:
		return ParagraphContent{Text: "Start typing..."}, nil
	case BlockStatCard:
		return StatCardContent{Stat: Stat{Value: "0%", Label: "Metric"}}, nil
	case BlockSpecTable:
		return SpecTableContent{Rows: []SpecRow{{Label: "Range", Value: "0-10 m"}}}, nil
	case BlockBulletList:
		return BulletListContent{Items: []string{"First point"}}, nil
	case BlockQuote:
		return QuoteContent{Text: "Quote"}, nil
	case BlockCallout:
		return CalloutContent{Text: "Callout", Variant: "info"}, nil
	case BlockCTA:
		return CTAContent{Text: "Ready to get started?", ButtonLabel: "Contact us"}, nil
	case BlockComparison:
		return ComparisonContent{
			Left:  ComparisonSide{Title: "Before", Items: []string{}},
			Right: ComparisonSide{Title: "After", Items: []string{}},
		}, nil
	case BlockDivider:
		return DividerContent{}, nil
	case BlockImage:
		return ImageContent{}, nil
	case BlockChart:
		return ChartContent{ChartType: "bar", Data: []ChartPoint{}}, nil
	case BlockTwoColumn:
		return TwoColumnContent{}, nil
	case BlockSpacer:
		return SpacerContent{Height: 32}, nil
	}
	return nil, fmt.Errorf("unknown block type %q", t)
}
