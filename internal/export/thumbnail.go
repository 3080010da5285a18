package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"brand-builder/internal/domain"
	"brand-builder/internal/storage"
	"brand-builder/internal/worker"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

const ThumbnailScale = 0.5

// RenderFunc rasterizes the first page of the print route at url.
type RenderFunc func(ctx context.Context, url string, size Size) (image.Image, error)

type ThumbnailSetter interface {
	SetThumbnail(ctx context.Context, t domain.DocumentType, id, url string) error
}

// Thumbnailer renders a JPEG preview of saved documents on the worker pool and
// stores it at thumbnails/{type}/{id}.jpg.
type Thumbnailer struct {
	pool     *worker.WorkerPool
	store    storage.Store
	setter   ThumbnailSetter
	render   RenderFunc
	frontend string
	logger   *zap.Logger
}

func NewThumbnailer(pool *worker.WorkerPool, store storage.Store, setter ThumbnailSetter, render RenderFunc, frontend string, logger *zap.Logger) *Thumbnailer {
	return &Thumbnailer{
		pool:     pool,
		store:    store,
		setter:   setter,
		render:   render,
		frontend: strings.TrimRight(frontend, "/"),
		logger:   logger,
	}
}

// PrintURL is the client route that renders doc for printing.
func (t *Thumbnailer) PrintURL(doc *domain.Document) string {
	if doc.Type == domain.DocumentPresentation {
		return fmt.Sprintf("%s/presentations/builder/print?id=%s", t.frontend, doc.ID)
	}
	return fmt.Sprintf("%s/case-studies/%s/print", t.frontend, doc.ID)
}

func SizeFor(t domain.DocumentType) Size {
	if t == domain.DocumentPresentation {
		return Slide
	}
	return A4
}

func (t *Thumbnailer) Schedule(doc *domain.Document) {
	docType, id, url := doc.Type, doc.ID, t.PrintURL(doc)
	accepted := t.pool.Submit(func(ctx context.Context) error {
		return t.generate(ctx, docType, id, url)
	})
	if !accepted {
		t.logger.Warn("thumbnail dropped", zap.String("document_id", id))
	}
}

func (t *Thumbnailer) generate(ctx context.Context, docType domain.DocumentType, id, url string) error {
	img, err := t.render(ctx, url, SizeFor(docType))
	if err != nil {
		return fmt.Errorf("render thumbnail %s: %w", id, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return err
	}
	publicURL, err := t.store.Put(ctx, storage.ThumbnailKey(string(docType), id), "image/jpeg", buf.Bytes())
	if err != nil {
		return fmt.Errorf("store thumbnail %s: %w", id, err)
	}
	if err := t.setter.SetThumbnail(ctx, docType, id, publicURL); err != nil {
		return err
	}
	t.logger.Debug("thumbnail stored", zap.String("document_id", id), zap.String("url", publicURL))
	return nil
}

// RodRender renders thumbnails with a shared browser.
func RodRender(browser *rod.Browser, timeout time.Duration) RenderFunc {
	return func(ctx context.Context, url string, size Size) (image.Image, error) {
		root, closePage, err := OpenPage(ctx, browser, url, size, ThumbnailScale, timeout)
		if err != nil {
			return nil, err
		}
		defer closePage()

		pages, err := root.Pages(ctx)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			return nil, fmt.Errorf("no pages at %s", url)
		}
		return rasterizePage(ctx, pages[0], size, ThumbnailScale)
	}
}
