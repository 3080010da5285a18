package document

import (
	"brand-builder/internal/domain"
	apiError "brand-builder/internal/errors"
	"brand-builder/redis"
	"context"
	defError "errors"
	"net/http"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingThumbnailer struct {
	mu   sync.Mutex
	docs []*domain.Document
}

func (r *recordingThumbnailer) Schedule(doc *domain.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Table(TableCaseStudies).AutoMigrate(&Record{}))
	require.NoError(t, db.Table(TablePresentations).AutoMigrate(&Record{}))
	return db
}

func newTestService(t *testing.T) (*DefaultService, *recordingThumbnailer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	thumbs := &recordingThumbnailer{}
	return NewService(NewRepository(newTestDB(t)), redis.NewCache(client), thumbs, zap.NewNop()), thumbs
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *apiError.APIError
	require.True(t, defError.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.Status
}

func TestService_CreateAndGet(t *testing.T) {
	svc, thumbs := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, 1, domain.DocumentPresentation, "Q3 Launch")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Launch", doc.Name)

	got, err := svc.Get(ctx, 1, domain.DocumentPresentation, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	require.Len(t, got.Pages, 1)
	require.Len(t, got.Pages[0].Blocks, 1)
	assert.Equal(t, domain.HeadingContent{Text: "New Slide", Level: 1}, got.Pages[0].Blocks[0].Content)
	assert.NotNil(t, got.Pages[0].Transition)

	_, err = svc.Get(ctx, 1, domain.DocumentCaseStudy, doc.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err), "tables are separate")

	_, err = svc.Get(ctx, 2, domain.DocumentPresentation, doc.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err), "other users cannot read")

	assert.Len(t, thumbs.docs, 1)
}

func TestService_SaveOverwritesOwnedOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, 1, domain.DocumentCaseStudy, "")
	require.NoError(t, err)

	edited := doc.Clone()
	edited.Name = "Sensor retrofit"
	edited.Pages = append(edited.Pages, domain.NewPage())
	require.NoError(t, svc.Save(ctx, 1, edited))

	got, err := svc.Get(ctx, 1, domain.DocumentCaseStudy, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sensor retrofit", got.Name)
	assert.Len(t, got.Pages, 2)

	hijack := edited.Clone()
	hijack.Name = "stolen"
	err = svc.Save(ctx, 2, hijack)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	got, err = svc.Get(ctx, 1, domain.DocumentCaseStudy, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sensor retrofit", got.Name)
}

func TestService_SaveRejectsEmptyDocument(t *testing.T) {
	svc, _ := newTestService(t)
	doc := domain.NewDocument(domain.DocumentCaseStudy)
	doc.Pages = nil
	err := svc.Save(context.Background(), 1, doc)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestService_SaveRejectsBrokenStructure(t *testing.T) {
	svc, thumbs := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, 1, domain.DocumentCaseStudy, "Retrofit")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(d *domain.Document)
	}{
		{"empty page", func(d *domain.Document) {
			d.Pages = append(d.Pages, domain.Page{ID: domain.NewID(), Blocks: []domain.Block{}})
		}},
		{"repeated block id", func(d *domain.Document) {
			d.Pages[0].Blocks = append(d.Pages[0].Blocks, d.Pages[0].Blocks[0])
		}},
		{"repeated page id", func(d *domain.Document) {
			p := domain.NewPage()
			p.ID = d.Pages[0].ID
			d.Pages = append(d.Pages, p)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := doc.Clone()
			broken.Name = "broken"
			tt.mutate(broken)

			err := svc.Save(ctx, 1, broken)
			assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

			got, err := svc.Get(ctx, 1, domain.DocumentCaseStudy, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, "Retrofit", got.Name, "stored copy untouched")
		})
	}
	assert.Len(t, thumbs.docs, 1, "only the create was rendered")
}

func TestService_ListIsCachedAndInvalidated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, 1, domain.DocumentCaseStudy, "A")
	require.NoError(t, err)

	list, err := svc.List(ctx, 1, domain.DocumentCaseStudy, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "A", list.Data[0].Name)
	assert.Equal(t, 1, list.Data[0].PageCount)

	_, err = svc.Create(ctx, 1, domain.DocumentCaseStudy, "B")
	require.NoError(t, err)

	list, err = svc.List(ctx, 1, domain.DocumentCaseStudy, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	assert.Equal(t, int64(2), list.Meta.Total)

	require.NoError(t, svc.Delete(ctx, 1, domain.DocumentCaseStudy, a.ID))
	list, err = svc.List(ctx, 1, domain.DocumentCaseStudy, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)

	err = svc.Delete(ctx, 1, domain.DocumentCaseStudy, a.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestService_ListPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for range 3 {
		_, err := svc.Create(ctx, 1, domain.DocumentPresentation, "")
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, 1, domain.DocumentPresentation, 2, 2)
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)
	assert.Equal(t, 2, list.Meta.TotalPage)
}

func TestUseThumbnailer(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := NewService(repo, redis.NewCache(nil), nil, zap.NewNop())
	ctx := context.Background()

	doc := domain.NewDocument(domain.DocumentCaseStudy)
	require.NoError(t, svc.Save(ctx, 9, doc), "saving without a thumbnailer is fine")

	thumbs := &recordingThumbnailer{}
	svc.UseThumbnailer(thumbs)
	require.NoError(t, svc.Save(ctx, 9, doc))
	thumbs.mu.Lock()
	defer thumbs.mu.Unlock()
	assert.Len(t, thumbs.docs, 1)
}
