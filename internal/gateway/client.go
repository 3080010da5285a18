package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrRateLimited      = defError.New("rate limit exceeded")
	ErrCreditsExhausted = defError.New("AI credits exhausted")
	ErrEmptyResponse    = defError.New("empty response from AI gateway")
)

// StatusError is a non-success answer from the gateway other than 429/402.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("AI gateway error: status=%d body=%s", e.StatusCode, truncate(e.Body, 200))
}

// Prompt is one single-turn request.
type Prompt struct {
	System string
	User   string
	// JSON forces the JSON-object response mode.
	JSON bool
}

// Generator is what the HTTP functions need from the gateway.
type Generator interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	CompleteJSON(ctx context.Context, p Prompt, dest any) error
	GenerateImage(ctx context.Context, prompt, sourceImage string) (string, error)
}

type Config struct {
	URL        string
	APIKey     string
	Model      string
	ImageModel string
	// RPS caps outgoing requests per second; zero means unlimited. Requests
	// over the cap fail immediately with ErrRateLimited.
	RPS     float64
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint. Every call
// is attempted exactly once.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = max(1, int(cfg.RPS))
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Modalities     []string        `json:"modalities,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Images  []struct {
				ImageURL imageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	req := chatRequest{Model: c.cfg.Model}
	if p.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: p.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: p.User})
	if p.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON runs p in JSON mode and decodes the answer into dest. Models
// sometimes wrap JSON in a code fence; that is stripped first.
func (c *Client) CompleteJSON(ctx context.Context, p Prompt, dest any) error {
	p.JSON = true
	text, err := c.Complete(ctx, p)
	if err != nil {
		return err
	}
	text = StripCodeBlock(text)
	if err := json.Unmarshal([]byte(text), dest); err != nil {
		return fmt.Errorf("parse AI response: %w (raw: %s)", err, truncate(text, 200))
	}
	return nil
}

// GenerateImage returns the data URL of an image generated from prompt. When
// sourceImage is set it is sent along for editing.
func (c *Client) GenerateImage(ctx context.Context, prompt, sourceImage string) (string, error) {
	var content any = prompt
	if sourceImage != "" {
		content = []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: sourceImage}},
		}
	}
	req := chatRequest{
		Model:      c.cfg.ImageModel,
		Messages:   []chatMessage{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Images) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Images[0].ImageURL.URL, nil
}

func (c *Client) do(ctx context.Context, payload chatRequest) (*chatResponse, error) {
	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrCreditsExhausted
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
