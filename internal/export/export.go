package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/go-pdf/fpdf"
)

// Size is a target page size in CSS pixels and in physical millimetres.
type Size struct {
	Name     string
	WidthPx  int
	HeightPx int
	WidthMM  float64
	HeightMM float64
}

var (
	A4    = Size{Name: "a4", WidthPx: 794, HeightPx: 1123, WidthMM: 210, HeightMM: 297}
	Slide = Size{Name: "slide", WidthPx: 1920, HeightPx: 1080, WidthMM: 338.67, HeightMM: 190.5}
)

const DefaultScale = 2

// Element is one page of the rendered document.
type Element interface {
	// ForceSize pins the element to w by h pixels and returns a func that
	// restores its previous styles.
	ForceSize(ctx context.Context, w, h int) (restore func() error, err error)
	Rasterize(ctx context.Context, scale float64) (image.Image, error)
}

// Root yields the page elements of a rendered document in order.
type Root interface {
	Pages(ctx context.Context) ([]Element, error)
}

// Progress receives a completion percentage. Values strictly increase and
// the last one reported on success is 100.
type Progress func(percent int)

type PageError struct {
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("export page %d: %v", e.Page+1, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

type reporter struct {
	fn   Progress
	last int
}

func (r *reporter) report(p int) {
	if r.fn == nil || p <= r.last {
		return
	}
	if p > 100 {
		p = 100
	}
	r.last = p
	r.fn(p)
}

// capture rasterizes every page in order and stops at the first failure.
// Page work takes the first 90 percent; encoding the output takes the rest.
func capture(ctx context.Context, root Root, size Size, scale float64, rep *reporter) ([]image.Image, error) {
	pages, err := root.Pages(ctx)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("export: no pages found")
	}
	if scale <= 0 {
		scale = DefaultScale
	}

	out := make([]image.Image, 0, len(pages))
	for i, el := range pages {
		if err := ctx.Err(); err != nil {
			return nil, &PageError{Page: i, Err: err}
		}
		img, err := rasterizePage(ctx, el, size, scale)
		if err != nil {
			return nil, &PageError{Page: i, Err: err}
		}
		out = append(out, img)
		rep.report((i + 1) * 90 / len(pages))
	}
	return out, nil
}

func rasterizePage(ctx context.Context, el Element, size Size, scale float64) (img image.Image, err error) {
	restore, err := el.ForceSize(ctx, size.WidthPx, size.HeightPx)
	if err != nil {
		return nil, fmt.Errorf("force size: %w", err)
	}
	defer func() {
		if rerr := restore(); rerr != nil && err == nil {
			img, err = nil, fmt.Errorf("restore styles: %w", rerr)
		}
	}()
	return el.Rasterize(ctx, scale)
}

// PDF renders every page of root into one PDF written to w. Nothing is
// written unless every page rasterized.
func PDF(ctx context.Context, root Root, size Size, scale float64, progress Progress, w io.Writer) error {
	rep := &reporter{fn: progress, last: -1}
	rep.report(0)

	images, err := capture(ctx, root, size, scale, rep)
	if err != nil {
		return err
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: size.WidthMM, Ht: size.HeightMM},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	for i, img := range images {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
			return &PageError{Page: i, Err: err}
		}
		name := fmt.Sprintf("page-%d", i)
		doc.AddPage()
		doc.RegisterImageOptionsReader(name, opts, &buf)
		doc.ImageOptions(name, 0, 0, size.WidthMM, size.HeightMM, false, opts, 0, "")
		if err := doc.Error(); err != nil {
			return &PageError{Page: i, Err: err}
		}
	}

	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return err
	}
	if _, err := out.WriteTo(w); err != nil {
		return err
	}
	rep.report(100)
	return nil
}

// PNG renders every page of root to its own PNG. The result is all pages or
// an error.
func PNG(ctx context.Context, root Root, size Size, scale float64, progress Progress) ([][]byte, error) {
	rep := &reporter{fn: progress, last: -1}
	rep.report(0)

	images, err := capture(ctx, root, size, scale, rep)
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(images))
	for i, img := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, &PageError{Page: i, Err: err}
		}
		out = append(out, buf.Bytes())
	}
	rep.report(100)
	return out, nil
}
