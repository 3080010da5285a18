package export

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"brand-builder/internal/domain"
	"brand-builder/internal/storage"
	"brand-builder/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu    sync.Mutex
	blobs map[string]*storage.Blob
}

func (m *memStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = &storage.Blob{Key: key, ContentType: contentType, Data: data}
	return "https://cdn.example/" + key, nil
}

func (m *memStore) Get(_ context.Context, key string) (*storage.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

type setterFunc func(ctx context.Context, t domain.DocumentType, id, url string) error

func (f setterFunc) SetThumbnail(ctx context.Context, t domain.DocumentType, id, url string) error {
	return f(ctx, t, id, url)
}

func TestThumbnailer_StoresJPEGAndRecordsURL(t *testing.T) {
	pool := worker.NewWorkerPool(1, 4, time.Second, zap.NewNop())
	store := &memStore{blobs: map[string]*storage.Blob{}}
	urls := make(chan string, 1)
	var rendered []string
	render := func(_ context.Context, url string, size Size) (image.Image, error) {
		rendered = append(rendered, url)
		assert.Equal(t, Slide, size)
		return image.NewRGBA(image.Rect(0, 0, 16, 9)), nil
	}
	thumbs := NewThumbnailer(pool, store, setterFunc(func(_ context.Context, typ domain.DocumentType, id, url string) error {
		assert.Equal(t, domain.DocumentPresentation, typ)
		urls <- url
		return nil
	}), render, "http://app.local/", zap.NewNop())

	deck := domain.NewDocument(domain.DocumentPresentation)
	thumbs.Schedule(deck)

	select {
	case url := <-urls:
		assert.Equal(t, "https://cdn.example/thumbnails/presentation/"+deck.ID+".jpg", url)
	case <-time.After(2 * time.Second):
		t.Fatal("thumbnail not generated")
	}
	pool.Shutdown()

	blob, err := store.Get(context.Background(), storage.ThumbnailKey("presentation", deck.ID))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", blob.ContentType)
	assert.Equal(t, []byte{0xff, 0xd8}, blob.Data[:2])
	assert.Equal(t, []string{"http://app.local/presentations/builder/print?id=" + deck.ID}, rendered)
}

func TestThumbnailer_PrintURL(t *testing.T) {
	thumbs := NewThumbnailer(nil, nil, nil, nil, "http://app.local", zap.NewNop())
	doc := domain.NewDocument(domain.DocumentCaseStudy)
	assert.Equal(t, "http://app.local/case-studies/"+doc.ID+"/print", thumbs.PrintURL(doc))
	assert.Equal(t, A4, SizeFor(domain.DocumentCaseStudy))
}

func TestThumbnailer_RenderFailureStoresNothing(t *testing.T) {
	store := &memStore{blobs: map[string]*storage.Blob{}}
	thumbs := NewThumbnailer(nil, store, nil, func(context.Context, string, Size) (image.Image, error) {
		return nil, errors.New("chrome gone")
	}, "http://app.local", zap.NewNop())

	err := thumbs.generate(context.Background(), domain.DocumentCaseStudy, "c1", "http://app.local/case-studies/c1/print")
	assert.Error(t, err)
	assert.Empty(t, store.blobs)
}
