package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_Plain(t *testing.T) {
	got, err := ExtractText(strings.NewReader("  Laser sensors\nfor steel mills \n"), "notes.TXT")
	require.NoError(t, err)
	assert.Equal(t, "Laser sensors\nfor steel mills", got)
}

func TestExtractText_Markdown(t *testing.T) {
	src := "# Retrofit at Acme\n\nWe cut **scrap** by 40%.\n\n- faster setup\n- fewer stops\n"
	got, err := ExtractText(strings.NewReader(src), "case.md")
	require.NoError(t, err)

	assert.Contains(t, got, "Retrofit at Acme")
	assert.Contains(t, got, "We cut scrap by 40%.")
	assert.Contains(t, got, "faster setup")
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := ExtractText(strings.NewReader("x"), "deck.pptx")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, IsSupported("deck.pptx"))
	assert.True(t, IsSupported("Brief.DOCX"))
}

func TestExtractText_PDF(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, "Distance sensors")
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	got, err := ExtractText(&buf, "brief.pdf")
	require.NoError(t, err)
	assert.Contains(t, got, "Distance")
}

func TestExtractText_BrokenPDF(t *testing.T) {
	_, err := ExtractText(strings.NewReader("%PDF-1.4 garbage"), "broken.pdf")
	assert.Error(t, err)
}

func TestExtractText_DOCX(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("Customer: Acme Steel")
	w.AddParagraph().AddText("Result: 99.5% uptime")
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ExtractText(&buf, "brief.docx")
	require.NoError(t, err)
	assert.Equal(t, "Customer: Acme Steel\n\nResult: 99.5% uptime", got)
}
