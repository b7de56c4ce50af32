package ai

import (
	"context"
	"strings"
)

type imageChain struct {
	primary  ImageGenerator
	fallback ImageGenerator
}

// WithImageFallback returns a generator that first tries the primary
// implementation and falls back to the provided generator when the primary is
// unavailable or fails.
func WithImageFallback(primary, fallback ImageGenerator) ImageGenerator {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &imageChain{primary: primary, fallback: fallback}
}

func (c *imageChain) Enabled() bool {
	if c == nil {
		return false
	}
	return (c.primary != nil && c.primary.Enabled()) || (c.fallback != nil && c.fallback.Enabled())
}

func (c *imageChain) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	var primaryErr error
	if c.primary != nil && c.primary.Enabled() {
		url, err := c.primary.GenerateImage(ctx, prompt)
		if err == nil && strings.TrimSpace(url) != "" {
			return url, nil
		}
		primaryErr = err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return c.fallback.GenerateImage(ctx, prompt)
	}
	if primaryErr != nil {
		return "", primaryErr
	}
	return "", ErrDisabled
}

type textChain struct {
	primary  TextGenerator
	fallback TextGenerator
}

// WithTextFallback is WithImageFallback for chat completions.
func WithTextFallback(primary, fallback TextGenerator) TextGenerator {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &textChain{primary: primary, fallback: fallback}
}

func (c *textChain) Enabled() bool {
	if c == nil {
		return false
	}
	return (c.primary != nil && c.primary.Enabled()) || (c.fallback != nil && c.fallback.Enabled())
}

func (c *textChain) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	var primaryErr error
	if c.primary != nil && c.primary.Enabled() {
		text, err := c.primary.Complete(ctx, req)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		primaryErr = err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if c.fallback != nil && c.fallback.Enabled() {
		return c.fallback.Complete(ctx, req)
	}
	if primaryErr != nil {
		return "", primaryErr
	}
	return "", ErrDisabled
}
