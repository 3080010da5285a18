package functions

import (
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	"brand-builder/internal/gateway"
	"brand-builder/internal/parser"
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MaxUploadBytes = 10 << 20
	// MinExtractedText is the shortest extraction treated as a real result.
	MinExtractedText = 50
)

// Handler serves the stateless functions that proxy to the AI gateway.
type Handler struct {
	gen    gateway.Generator
	logger *zap.Logger
}

func NewHandler(gen gateway.Generator, logger *zap.Logger) *Handler {
	return &Handler{gen: gen, logger: logger}
}

// RegisterRoutes mounts every function under rg with permissive CORS. auth
// guards the routes that need a signed in user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
	}))

	rg.POST("/generate-brand-text", h.GenerateBrandText)
	rg.POST("/generate-case-study-content-fill", h.GenerateContentFill)
	rg.POST("/generate-case-study-suggestions", h.GenerateCaseStudySuggestions)
	rg.POST("/generate-slide-suggestions", h.GenerateSlideSuggestions)
	rg.POST("/generate-brand-chart", h.GenerateBrandChart)
	rg.POST("/generate-brand-image", h.GenerateBrandImage)
	rg.POST("/upscale-image", h.UpscaleImage)
	rg.POST("/check-page-dependencies", h.CheckPageDependencies)
	rg.POST("/convert-case-study", h.ConvertCaseStudy)
	rg.POST("/parse-document", auth, h.ParseDocument)

	// answer preflight for any function name, known or not
	rg.OPTIONS("/*name", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

// bind decodes the JSON body into form. Input errors are 400 and stop the
// request before anything is sent upstream.
func bind(c *gin.Context, form any) bool {
	if err := c.ShouldBindJSON(form); err != nil {
		apiErr := errors.NewValidationError(err)
		apiErr.Status = http.StatusBadRequest
		c.Error(apiErr)
		return false
	}
	return true
}

// upstream maps gateway failures onto the function's response.
func (h *Handler) upstream(c *gin.Context, err error) {
	var status *gateway.StatusError
	switch {
	case defError.Is(err, gateway.ErrRateLimited):
		c.Error(errors.TooManyRequests("Rate limit exceeded. Please try again later.", err))
	case defError.Is(err, gateway.ErrCreditsExhausted):
		c.Error(errors.PaymentRequired("AI credits exhausted. Please add credits to continue.", err))
	case defError.Is(err, context.DeadlineExceeded):
		c.Error(errors.New(http.StatusGatewayTimeout, "AI gateway timed out", err))
	case defError.As(err, &status):
		c.Error(errors.New(http.StatusInternalServerError, "AI gateway error", err))
	default:
		c.Error(errors.New(http.StatusInternalServerError, "AI request failed", err))
	}
}

type BrandTextRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	Context string `json:"context"`
}

func (h *Handler) GenerateBrandText(c *gin.Context) {
	var form BrandTextRequest
	if !bind(c, &form) {
		return
	}
	user := form.Prompt
	if form.Context != "" {
		user = fmt.Sprintf("Context:\n%s\n\nTask:\n%s", form.Context, form.Prompt)
	}

	text, err := h.gen.Complete(c.Request.Context(), gateway.Prompt{System: brandTextSystem, User: user})
	if err != nil {
		h.upstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": strings.TrimSpace(text)})
}

type ContentFillRequest struct {
	BriefDescription string `json:"briefDescription" binding:"required"`
	Company          string `json:"company"`
	Industry         string `json:"industry"`
	Product          string `json:"product"`
	KeyResult        string `json:"keyResult"`
}

type CaseStudyContent struct {
	Title     string        `json:"title"`
	Subtitle  string        `json:"subtitle"`
	Challenge string        `json:"challenge"`
	Solution  string        `json:"solution"`
	Results   []string      `json:"results"`
	Stats     []domain.Stat `json:"stats"`
	Quote     struct {
		Text        string `json:"text"`
		Attribution string `json:"attribution"`
	} `json:"quote"`
}

func (h *Handler) GenerateContentFill(c *gin.Context) {
	var form ContentFillRequest
	if !bind(c, &form) {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Brief: %s\n", form.BriefDescription)
	for _, kv := range [][2]string{
		{"Company", form.Company},
		{"Industry", form.Industry},
		{"Product", form.Product},
		{"Key result", form.KeyResult},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
		}
	}

	var content CaseStudyContent
	if err := h.gen.CompleteJSON(c.Request.Context(), gateway.Prompt{System: contentFillSystem, User: b.String()}, &content); err != nil {
		h.upstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

type CaseStudySuggestionsRequest struct {
	Section string `json:"section" binding:"required"`
	Content string `json:"content" binding:"required"`
	Company string `json:"company"`
}

func (h *Handler) GenerateCaseStudySuggestions(c *gin.Context) {
	var form CaseStudySuggestionsRequest
	if !bind(c, &form) {
		return
	}
	user := fmt.Sprintf("Section: %s\n\n%s", form.Section, form.Content)
	if form.Company != "" {
		user = fmt.Sprintf("Company: %s\n%s", form.Company, user)
	}

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := h.gen.CompleteJSON(c.Request.Context(), gateway.Prompt{System: caseStudySuggestionsSystem, User: user}, &out); err != nil {
		h.upstream(c, err)
		return
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	c.JSON(http.StatusOK, out)
}

type SlideSuggestionsRequest struct {
	Slide             json.RawMessage `json:"slide" binding:"required"`
	PresentationTitle string          `json:"presentationTitle"`
	Audience          string          `json:"audience"`
}

type SlideSuggestion struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) GenerateSlideSuggestions(c *gin.Context) {
	var form SlideSuggestionsRequest
	if !bind(c, &form) {
		return
	}
	user := fmt.Sprintf("Presentation: %s\nAudience: %s\nCurrent slide (JSON):\n%s",
		orDefault(form.PresentationTitle, "untitled"), orDefault(form.Audience, "general"), form.Slide)

	var out struct {
		Suggestions []SlideSuggestion `json:"suggestions"`
	}
	if err := h.gen.CompleteJSON(c.Request.Context(), gateway.Prompt{System: slideSuggestionsSystem, User: user}, &out); err != nil {
		h.upstream(c, err)
		return
	}
	if out.Suggestions == nil {
		out.Suggestions = []SlideSuggestion{}
	}
	c.JSON(http.StatusOK, out)
}

type ChartRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	ChartType string `json:"chartType" binding:"omitempty,oneof=bar line pie area"`
}

func (h *Handler) GenerateBrandChart(c *gin.Context) {
	var form ChartRequest
	if !bind(c, &form) {
		return
	}
	user := form.Prompt
	if form.ChartType != "" {
		user = fmt.Sprintf("%s\nUse chartType %q.", user, form.ChartType)
	}

	var chart domain.ChartContent
	if err := h.gen.CompleteJSON(c.Request.Context(), gateway.Prompt{System: chartSystem, User: user}, &chart); err != nil {
		h.upstream(c, err)
		return
	}
	if form.ChartType != "" {
		chart.ChartType = form.ChartType
	}
	if chart.ChartType == "" {
		chart.ChartType = "bar"
	}
	if chart.Data == nil {
		chart.Data = []domain.ChartPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"chart": chart})
}

type ImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Style  string `json:"style"`
}

func (h *Handler) GenerateBrandImage(c *gin.Context) {
	var form ImageRequest
	if !bind(c, &form) {
		return
	}
	prompt := fmt.Sprintf(imagePrompt, form.Prompt)
	if form.Style != "" {
		prompt += ". Style: " + form.Style
	}

	url, err := h.gen.GenerateImage(c.Request.Context(), prompt, "")
	if err != nil {
		h.upstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

type UpscaleRequest struct {
	ImageDataURL string `json:"imageDataUrl" binding:"required,startswith=data:image/"`
	Scale        int    `json:"scale" binding:"required,oneof=2 4"`
}

func (h *Handler) UpscaleImage(c *gin.Context) {
	var form UpscaleRequest
	if !bind(c, &form) {
		return
	}

	url, err := h.gen.GenerateImage(c.Request.Context(), fmt.Sprintf(upscalePrompt, form.Scale), form.ImageDataURL)
	if err != nil {
		h.upstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upscaledUrl": url})
}

type DependenciesRequest struct {
	PagePath string `json:"pagePath" binding:"required,startswith=/"`
	Content  string `json:"content" binding:"required"`
}

type Dependency struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type DependenciesResponse struct {
	Dependencies []Dependency `json:"dependencies"`
	SafeToDelete bool         `json:"safeToDelete"`
}

func (h *Handler) CheckPageDependencies(c *gin.Context) {
	var form DependenciesRequest
	if !bind(c, &form) {
		return
	}
	user := fmt.Sprintf("Page to delete: %s\n\nSource:\n%s", form.PagePath, form.Content)

	var out DependenciesResponse
	if err := h.gen.CompleteJSON(c.Request.Context(), gateway.Prompt{System: dependenciesSystem, User: user}, &out); err != nil {
		h.upstream(c, err)
		return
	}
	if out.Dependencies == nil {
		out.Dependencies = []Dependency{}
	}
	// a page something still points at is never safe to delete
	if len(out.Dependencies) > 0 {
		out.SafeToDelete = false
	}
	c.JSON(http.StatusOK, out)
}

type ConvertRequest struct {
	Text string `json:"text" binding:"required,min=20"`
	Name string `json:"name" binding:"max=255"`
}

func (h *Handler) ConvertCaseStudy(c *gin.Context) {
	var form ConvertRequest
	if !bind(c, &form) {
		return
	}

	var raw convertedDocument
	if err := h.gen.CompleteJSON(c.Request.Context(), gateway.Prompt{System: convertSystem, User: form.Text}, &raw); err != nil {
		h.upstream(c, err)
		return
	}

	doc, dropped := raw.toDocument(form.Name)
	if dropped > 0 {
		h.logger.Info("convert-case-study dropped blocks", zap.Int("dropped", dropped))
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

type convertedDocument struct {
	Name  string `json:"name"`
	Pages []struct {
		Blocks []json.RawMessage `json:"blocks"`
	} `json:"pages"`
}

// toDocument builds a case study with fresh ids. Blocks that do not decode
// into a known variant are dropped; pages left empty are seeded.
func (d convertedDocument) toDocument(name string) (*domain.Document, int) {
	doc := domain.NewDocument(domain.DocumentCaseStudy)
	if name = orDefault(name, d.Name); name != "" {
		doc.Name = name
	}

	dropped := 0
	var pages []domain.Page
	for _, p := range d.Pages {
		page := domain.NewPage()
		page.Blocks = page.Blocks[:0]
		for _, rawBlock := range p.Blocks {
			var b domain.Block
			if err := json.Unmarshal(rawBlock, &b); err != nil {
				dropped++
				continue
			}
			b.ID = domain.NewID()
			page.Blocks = append(page.Blocks, b)
		}
		if len(page.Blocks) == 0 {
			page.Blocks = append(page.Blocks, domain.SeedBlock(domain.SeedHeadingFor(domain.DocumentCaseStudy)))
		}
		pages = append(pages, page)
	}
	if len(pages) > 0 {
		doc.Pages = pages
	}
	return doc, dropped
}

func (h *Handler) ParseDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("No file provided", err))
		return
	}
	if fh.Size > MaxUploadBytes {
		c.Error(errors.BadRequest("File too large. Maximum size is 10MB", nil))
		return
	}
	if !parser.IsSupported(fh.Filename) {
		c.Error(errors.BadRequest(fmt.Sprintf("Unsupported file type: %s. Supported: %s",
			filepath.Ext(fh.Filename), strings.Join(parser.SupportedExtensions, ", ")), nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	defer f.Close()

	text, err := parser.ExtractText(f, fh.Filename)
	if err != nil {
		// unreadable binaries are a best-effort miss, not a failure
		h.logger.Info("document extraction failed", zap.String("file", fh.Filename), zap.Error(err))
		text = ""
	}
	if len(strings.TrimSpace(text)) < MinExtractedText {
		text = placeholder(fh.Filename)
	}

	c.JSON(http.StatusOK, gin.H{
		"text":     text,
		"fileName": fh.Filename,
		"fileSize": fh.Size,
	})
}

func placeholder(fileName string) string {
	return fmt.Sprintf("[Could not extract enough text from %s. Please paste the content manually.]", fileName)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
