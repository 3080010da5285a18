package builder

import (
	"bytes"
	"brand-builder/internal/domain"
	"brand-builder/internal/middleware"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(r *Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zap.NewNop()))
	rg := router.Group("/api/builder", func(c *gin.Context) {
		if c.GetHeader("X-User") == "other" {
			c.Set("user_id", uint64(2))
		} else {
			c.Set("user_id", uint64(1))
		}
		c.Next()
	})
	NewHandler(r).RegisterRoutes(rg)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, payload any) (*httptest.ResponseRecorder, SessionView) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var v SessionView
	if w.Code < 300 && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	}
	return w, v
}

func openSession(t *testing.T, router *gin.Engine) SessionView {
	t.Helper()
	w, v := do(t, router, http.MethodPost, "/api/builder/sessions", OpenRequest{Type: domain.DocumentCaseStudy})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, v.Session)
	return v
}

func TestHandler_OpenValidatesType(t *testing.T) {
	router := setupRouter(newRegistry(newMemDocs()))
	w, _ := do(t, router, http.MethodPost, "/api/builder/sessions", map[string]any{"type": "brochure"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_BlockLifecycle(t *testing.T) {
	router := setupRouter(newRegistry(newMemDocs()))
	v := openSession(t, router)
	base := "/api/builder/sessions/" + v.Session

	w, v := do(t, router, http.MethodPost, base+"/blocks", map[string]any{
		"block": map[string]any{"type": "paragraph", "content": map[string]any{"text": "Ultrasonic level sensing"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, v.Changed)
	blocks := v.Document.Pages[0].Blocks
	require.Len(t, blocks, 2)
	added := blocks[1].ID
	assert.Equal(t, added, v.Selected)

	w, v = do(t, router, http.MethodPatch, base+"/blocks/"+added, UpdateBlockRequest{Content: map[string]any{"text": "Radar level sensing"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Radar level sensing", v.Document.Pages[0].Blocks[1].Content.(domain.ParagraphContent).Text)

	w, _ = do(t, router, http.MethodPatch, base+"/blocks/"+added, UpdateBlockRequest{Content: map[string]any{"level": 2}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, v = do(t, router, http.MethodPost, base+"/blocks/"+added+"/duplicate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, v.Document.Pages[0].Blocks, 3)

	w, v = do(t, router, http.MethodPost, base+"/reorder-blocks", map[string]int{"from": 0, "to": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.BlockHeading, v.Document.Pages[0].Blocks[2].Type())

	w, v = do(t, router, http.MethodDelete, base+"/blocks/missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, v.Changed)
}

func TestHandler_AddBlockRequiresType(t *testing.T) {
	router := setupRouter(newRegistry(newMemDocs()))
	v := openSession(t, router)

	w, _ := do(t, router, http.MethodPost, "/api/builder/sessions/"+v.Session+"/blocks", map[string]any{"afterId": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_CanvasEditing(t *testing.T) {
	router := setupRouter(newRegistry(newMemDocs()))
	v := openSession(t, router)
	base := "/api/builder/sessions/" + v.Session
	heading := v.Document.Pages[0].Blocks[0].ID

	_, v = do(t, router, http.MethodPost, base+"/canvas", CanvasEventRequest{Event: EventDoubleClick, BlockID: heading})
	assert.Equal(t, heading, v.Editing)

	_, v = do(t, router, http.MethodPost, base+"/canvas", CanvasEventRequest{Event: EventInput, Patch: map[string]any{"text": "Inline sensors"}})
	assert.Equal(t, "Inline sensors", v.Draft["text"])

	_, v = do(t, router, http.MethodPost, base+"/canvas", CanvasEventRequest{Event: EventKeyDown, Key: KeyEscape})
	assert.Empty(t, v.Editing)
	assert.Equal(t, heading, v.Selected)
	assert.Equal(t, "Inline sensors", v.Document.Pages[0].Blocks[0].Content.(domain.HeadingContent).Text)
	assert.True(t, v.Dirty)

	w, _ := do(t, router, http.MethodPost, base+"/canvas", map[string]any{"event": "swipe"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Pages(t *testing.T) {
	router := setupRouter(newRegistry(newMemDocs()))
	v := openSession(t, router)
	base := "/api/builder/sessions/" + v.Session
	first := v.Document.Pages[0].ID

	_, v = do(t, router, http.MethodPost, base+"/pages", nil)
	require.Len(t, v.Document.Pages, 2)
	assert.Equal(t, 1, v.CurrentPage)

	_, v = do(t, router, http.MethodPut, base+"/current-page", map[string]int{"index": 0})
	assert.Equal(t, 0, v.CurrentPage)

	_, v = do(t, router, http.MethodPut, base+"/pages/"+first+"/background", domain.Background{Type: domain.BackgroundSolid, Value: "#0b1f3a"})
	assert.Equal(t, "#0b1f3a", v.Document.Pages[0].Background.Value)

	_, v = do(t, router, http.MethodPut, base+"/name", RenameRequest{Name: "Acme plant"})
	assert.Equal(t, "Acme plant", v.Document.Name)

	_, v = do(t, router, http.MethodDelete, base+"/pages/"+first, nil)
	require.Len(t, v.Document.Pages, 1)

	_, v = do(t, router, http.MethodDelete, base+"/pages/"+v.Document.Pages[0].ID, nil)
	assert.False(t, v.Changed, "the only page stays")
}

func TestHandler_SessionOwnershipAndClose(t *testing.T) {
	docs := newMemDocs()
	router := setupRouter(newRegistry(docs))
	v := openSession(t, router)
	base := "/api/builder/sessions/" + v.Session

	req := httptest.NewRequest(http.MethodGet, base, nil)
	req.Header.Set("X-User", "other")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, v = do(t, router, http.MethodPut, base+"/name", RenameRequest{Name: "Saved on close"})
	w, _ = do(t, router, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Saved on close", docs.saved(v.Document.ID).Name)

	w, _ = do(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = do(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
