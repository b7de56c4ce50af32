package ai

import (
	"context"
	"errors"
)

// ChatRequest is a single-turn chat completion request.
type ChatRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// TextGenerator produces chat completions.
type TextGenerator interface {
	Enabled() bool
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ImageGenerator turns a prompt into a hosted image URL.
type ImageGenerator interface {
	Enabled() bool
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

var (
	ErrDisabled      = errors.New("ai generator disabled")
	ErrEmptyResponse = errors.New("ai generator returned empty output")
)
