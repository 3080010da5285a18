package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// PageSelector matches the article-like element each printable page renders as.
const PageSelector = "[data-export-page]"

// Browser connects to controlURL, or launches a local headless Chrome when it
// is empty. The returned func closes the browser.
func Browser(ctx context.Context, controlURL string) (*rod.Browser, func(), error) {
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return browser, func() {
		_ = browser.Close()
		if l != nil {
			l.Kill()
		}
	}, nil
}

// RodRoot is a print route loaded in a headless page.
type RodRoot struct {
	page     *rod.Page
	selector string
}

// OpenPage loads url at the viewport of size and the given device scale factor
// and waits for the page elements to render.
func OpenPage(ctx context.Context, browser *rod.Browser, url string, size Size, scale float64, timeout time.Duration) (*RodRoot, func(), error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, nil, fmt.Errorf("create page: %w", err)
	}
	cleanup := func() { _ = page.Close() }

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             size.WidthPx,
		Height:            size.HeightPx,
		DeviceScaleFactor: scale,
		Mobile:            false,
	}).Call(page); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}

	p := page.Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wait load: %w", err)
	}
	if _, err := p.Element(PageSelector); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wait for pages: %w", err)
	}
	return &RodRoot{page: page, selector: PageSelector}, cleanup, nil
}

func (r *RodRoot) Pages(ctx context.Context) ([]Element, error) {
	els, err := r.page.Context(ctx).Elements(r.selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

type rodElement struct {
	el *rod.Element
}

const forceSizeJS = `function(w, h) {
	const prev = this.getAttribute('style');
	this.style.width = w + 'px';
	this.style.height = h + 'px';
	this.style.minHeight = h + 'px';
	this.style.maxHeight = h + 'px';
	this.style.overflow = 'hidden';
	return prev === null ? '\u0000' : prev;
}`

const restoreJS = `function(prev) {
	if (prev === '\u0000') { this.removeAttribute('style'); } else { this.setAttribute('style', prev); }
}`

func (e *rodElement) ForceSize(ctx context.Context, w, h int) (func() error, error) {
	res, err := e.el.Context(ctx).Eval(forceSizeJS, w, h)
	if err != nil {
		return nil, err
	}
	prev := res.Value.Str()
	return func() error {
		_, err := e.el.Eval(restoreJS, prev)
		return err
	}, nil
}

func (e *rodElement) Rasterize(ctx context.Context, _ float64) (image.Image, error) {
	// the device scale factor is set on the page viewport
	raw, err := e.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}
