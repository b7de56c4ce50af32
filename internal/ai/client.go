package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Config holds OpenAI configuration parameters.
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    string
	ImageModel   string
	ImageSize    string
	ImageQuality string
	Timeout      time.Duration
}

// Client implements TextGenerator and ImageGenerator against the OpenAI API.
type Client struct {
	client       openai.Client
	apiKey       string
	chatModel    string
	imageModel   string
	imageSize    string
	imageQuality string
}

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrDisabled
	}
	cfg.ChatModel = strings.TrimSpace(cfg.ChatModel)
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4"
	}
	cfg.ImageModel = strings.TrimSpace(cfg.ImageModel)
	if cfg.ImageModel == "" {
		cfg.ImageModel = "dall-e-3"
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = "1024x1024"
	}
	if cfg.ImageQuality == "" {
		cfg.ImageQuality = "standard"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{
		client:       openai.NewClient(opts...),
		apiKey:       key,
		chatModel:    cfg.ChatModel,
		imageModel:   cfg.ImageModel,
		imageSize:    cfg.ImageSize,
		imageQuality: cfg.ImageQuality,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Complete sends a chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.chatModel),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// GenerateImage requests a single image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(c.imageModel),
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(c.imageSize),
		Quality:        openai.ImageGenerateParamsQuality(c.imageQuality),
		ResponseFormat: openai.ImageGenerateParamsResponseFormat("url"),
	})
	if err != nil {
		return "", fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", ErrEmptyResponse
	}
	url := strings.TrimSpace(resp.Data[0].URL)
	if url == "" {
		return "", ErrEmptyResponse
	}
	return url, nil
}

// IsRetryable reports whether err is a rate limit or a transient upstream
// failure worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	var status interface{ HTTPStatus() int }
	if errors.As(err, &status) {
		return retryableStatus(status.HTTPStatus())
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
