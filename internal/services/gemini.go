package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBodyBytes = 4096

// Generator sends one user message to a text-generation model and returns
// the raw reply text. Implementations return *TransportError or
// *PayloadFormatError and must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

type GeminiConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// GeminiClient talks to the generateContent REST endpoint directly.
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig, httpClient *http.Client) *GeminiClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiClient{cfg: cfg, httpClient: httpClient}
}

type geminiPart struct {
	Text *string `json:"text,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) url() string {
	endpoint := strings.TrimRight(c.cfg.Endpoint, "/")
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", endpoint, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))
}

// Generate issues a single-turn generateContent call. There is no retry.
func (c *GeminiClient) Generate(ctx context.Context, text string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: &text}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Timeout: isTimeout(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(snippet),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Timeout: isTimeout(ctx, err), Err: err}
	}

	return extractReply(raw)
}

// extractReply enforces the candidates[0].content.parts[0].text shape.
func extractReply(raw []byte) (string, error) {
	var data generateResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", &PayloadFormatError{Reason: "body is not valid JSON"}
	}

	if len(data.Candidates) == 0 {
		return "", &PayloadFormatError{Reason: "no candidates"}
	}
	first := data.Candidates[0]
	if first.Content == nil {
		return "", &PayloadFormatError{Reason: "first candidate has no content"}
	}
	if len(first.Content.Parts) == 0 {
		return "", &PayloadFormatError{Reason: "first candidate has no parts"}
	}
	if first.Content.Parts[0].Text == nil {
		return "", &PayloadFormatError{Reason: "first part has no text"}
	}

	return *first.Content.Parts[0].Text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
