package document

import (
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	"brand-builder/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// kinds maps the URL segment to a document type.
var kinds = map[string]domain.DocumentType{
	"case-studies":  domain.DocumentCaseStudy,
	"presentations": domain.DocumentPresentation,
}

func kindParam(c *gin.Context) (domain.DocumentType, bool) {
	t, ok := kinds[c.Param("kind")]
	if !ok {
		c.Error(errors.NotFound("Unknown document kind", nil))
	}
	return t, ok
}

type CreateRequest struct {
	Name string `json:"name" binding:"max=255"`
}

func (h *Handler) Create(c *gin.Context) {
	t, ok := kindParam(c)
	if !ok {
		return
	}
	var form CreateRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	doc, err := h.service.Create(c.Request.Context(), c.GetUint64("user_id"), t, form.Name)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	t, ok := kindParam(c)
	if !ok {
		return
	}
	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.List(c.Request.Context(), c.GetUint64("user_id"), t, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Show(c *gin.Context) {
	t, ok := kindParam(c)
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), c.GetUint64("user_id"), t, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Update stores the posted document as a whole. The id and type come from
// the URL, not the body.
func (h *Handler) Update(c *gin.Context) {
	t, ok := kindParam(c)
	if !ok {
		return
	}
	var doc domain.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.Error(errors.BadRequest("Invalid document", err))
		return
	}
	doc.ID = c.Param("id")
	doc.Type = t
	if err := doc.Validate(); err != nil {
		c.Error(invalidDocument(err))
		return
	}

	if err := h.service.Save(c.Request.Context(), c.GetUint64("user_id"), &doc); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Delete(c *gin.Context) {
	t, ok := kindParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.GetUint64("user_id"), t, c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes mounts the document routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:kind", h.List)
	rg.POST("/:kind", h.Create)
	rg.GET("/:kind/:id", h.Show)
	rg.PUT("/:kind/:id", h.Update)
	rg.DELETE("/:kind/:id", h.Delete)
}
