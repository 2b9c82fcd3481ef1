package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// SDKGenerator implements Generator on the official Gemini Go SDK.
type SDKGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cfg    GeminiConfig
}

func NewSDKGenerator(ctx context.Context, cfg GeminiConfig) (*SDKGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &SDKGenerator{
		client: client,
		model:  client.GenerativeModel(cfg.Model),
		cfg:    cfg,
	}, nil
}

func (g *SDKGenerator) Close() error {
	return g.client.Close()
}

func (g *SDKGenerator) Generate(ctx context.Context, text string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", classifySDKError(ctx, err)
	}
	return sdkReply(resp)
}

func classifySDKError(ctx context.Context, err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &PayloadFormatError{Reason: "response blocked: " + blocked.Error()}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &TransportError{
			StatusCode: apiErr.Code,
			Status:     fmt.Sprintf("%d %s", apiErr.Code, http.StatusText(apiErr.Code)),
			Body:       apiErr.Message,
			Err:        err,
		}
	}

	return &TransportError{Timeout: isTimeout(ctx, err), Err: err}
}

// sdkReply applies the same shape rules as extractReply to an SDK response.
func sdkReply(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &PayloadFormatError{Reason: "no candidates"}
	}
	first := resp.Candidates[0]
	if first == nil || first.Content == nil {
		return "", &PayloadFormatError{Reason: "first candidate has no content"}
	}
	if len(first.Content.Parts) == 0 {
		return "", &PayloadFormatError{Reason: "first candidate has no parts"}
	}

	text, ok := first.Content.Parts[0].(genai.Text)
	if !ok {
		return "", &PayloadFormatError{Reason: "first part has no text"}
	}
	return string(text), nil
}
