package storage

import (
	"brand-builder/internal/errors"
	defError "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Serve answers GET /storage/*key with the stored bytes.
func (h *Handler) Serve(c *gin.Context) {
	blob, err := h.store.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		switch {
		case defError.Is(err, ErrInvalidKey):
			c.Error(errors.BadRequest("Invalid key", err))
		case defError.Is(err, gorm.ErrRecordNotFound):
			c.Error(errors.NotFound("Object not found", err))
		default:
			c.Error(err)
		}
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Header("Last-Modified", blob.UpdatedAt.UTC().Format(http.TimeFormat))
	c.Header("Content-Length", strconv.FormatInt(blob.Size, 10))
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
