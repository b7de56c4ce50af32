package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"caelus/backend/internal/ai"
	"caelus/backend/internal/logging"
	"caelus/backend/internal/metrics"
	"caelus/backend/internal/store"
	"caelus/backend/internal/synth"
	"caelus/backend/internal/util"
)

const (
	aiMaxRetries     = 3
	aiInitialBackoff = 2 * time.Second
	aiMaxBackoff     = 10 * time.Second
)

var errDescriptionRequired = errors.New("description is required")

func (s *Server) composeImage(c *gin.Context) (synth.Composition, bool) {
	var req ImagePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return synth.Composition{}, false
	}
	if strings.TrimSpace(req.Description) == "" {
		s.renderError(c, http.StatusBadRequest, errDescriptionRequired)
		return synth.Composition{}, false
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return synth.Composition{}, false
	}

	comp := s.styles.Compose(synth.Request{Category: category, Style: req.Style, Description: req.Description})
	s.recordComposition(c, store.KindImage, comp.StyleFallback, comp.RequestedKey)
	return comp, true
}

func (s *Server) composeSketch(c *gin.Context) (synth.SketchComposition, bool) {
	var req SketchPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return synth.SketchComposition{}, false
	}
	if strings.TrimSpace(req.Description) == "" {
		s.renderError(c, http.StatusBadRequest, errDescriptionRequired)
		return synth.SketchComposition{}, false
	}

	comp := synth.ComposeSketch(req.Description, req.Style)
	s.recordComposition(c, store.KindSketch, comp.StyleFallback, comp.RequestedKey)
	return comp, true
}

func (s *Server) recordComposition(c *gin.Context, kind string, fallback bool, requested string) {
	ctx := c.Request.Context()
	s.metrics.Inc(ctx, metrics.PromptsComposed, map[string]string{"kind": kind}, 1)
	if fallback {
		s.metrics.Inc(ctx, metrics.StyleFallbacks, map[string]string{"kind": kind}, 1)
		logging.FromContext(c).WithFields(logrus.Fields{
			"kind":  kind,
			"style": requested,
		}).Debug("unknown style key, using default")
	}
}

func (s *Server) handleImagePrompt(c *gin.Context) {
	comp, ok := s.composeImage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (s *Server) handleSketchPrompt(c *gin.Context) {
	comp, ok := s.composeSketch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, comp)
}

func (s *Server) handleGenerateImage(c *gin.Context) {
	comp, ok := s.composeImage(c)
	if !ok {
		return
	}
	gen := &store.Generation{
		Kind:         store.KindImage,
		Category:     string(comp.Category),
		RequestedKey: comp.RequestedKey,
		ResolvedKey:  comp.ResolvedKey,
		ContentType:  comp.ContentType.String(),
		Prompt:       comp.Prompt,
	}
	resp := GenerationResponse{
		Kind:          store.KindImage,
		Prompt:        comp.Prompt,
		ContentType:   comp.ContentType.String(),
		ResolvedStyle: comp.ResolvedKey,
		StyleFallback: comp.StyleFallback,
	}
	s.runImage(c, gen, resp)
}

func (s *Server) handleGenerateSketch(c *gin.Context) {
	comp, ok := s.composeSketch(c)
	if !ok {
		return
	}
	gen := &store.Generation{
		Kind:         store.KindSketch,
		Category:     string(synth.CategorySketch),
		RequestedKey: comp.RequestedKey,
		ResolvedKey:  string(comp.ResolvedStyle),
		Prompt:       comp.Prompt,
	}
	resp := GenerationResponse{
		Kind:          store.KindSketch,
		Prompt:        comp.Prompt,
		ResolvedStyle: string(comp.ResolvedStyle),
		StyleFallback: comp.StyleFallback,
	}
	s.runImage(c, gen, resp)
}

func (s *Server) handleGenerateSuggestions(c *gin.Context) {
	var req SuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("input is required"))
		return
	}
	s.runText(c, store.KindSuggestions, synth.SuggestionPrompt(req.Input))
}

func (s *Server) handleGenerateAnalysis(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	choices := req.SustainableChoices
	if strings.TrimSpace(choices) == "" {
		choices = synth.DefaultSustainableChoices
	}
	prompt := synth.AnalysisPrompt(req.Preferences.Normalize().Summary(), req.Measurements, choices)
	s.runText(c, store.KindAnalysis, prompt)
}

func (s *Server) runImage(c *gin.Context, gen *store.Generation, resp GenerationResponse) {
	if s.images == nil || !s.images.Enabled() {
		resp.Error = ai.ErrDisabled.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	timer := util.StartTimer()
	url, err := callAIWithRetry(c.Request.Context(), s, gen.Kind, func(ctx context.Context) (string, error) {
		return s.images.GenerateImage(ctx, gen.Prompt)
	})
	resp.ImageURL = url
	s.finishGeneration(c, gen, &resp, url, err, timer)
}

func (s *Server) runText(c *gin.Context, kind string, prompt synth.ChatPrompt) {
	gen := &store.Generation{Kind: kind, Prompt: prompt.User}
	resp := GenerationResponse{Kind: kind, Prompt: prompt.User}
	if s.text == nil || !s.text.Enabled() {
		resp.Error = ai.ErrDisabled.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	timer := util.StartTimer()
	text, err := callAIWithRetry(c.Request.Context(), s, kind, func(ctx context.Context) (string, error) {
		return s.text.Complete(ctx, ai.ChatRequest(prompt))
	})
	resp.Text = text
	s.finishGeneration(c, gen, &resp, text, err, timer)
}

// finishGeneration records the attempt in the generation log and renders the
// response. A failed log write never masks the generation outcome.
func (s *Server) finishGeneration(c *gin.Context, gen *store.Generation, resp *GenerationResponse, output string, err error, timer util.Timer) {
	ctx := c.Request.Context()
	gen.DurationMs = timer.ElapsedMs()
	gen.Output = output
	resp.DurationMs = gen.DurationMs

	status := http.StatusOK
	outcome := "ok"
	if err != nil {
		gen.Error = err.Error()
		resp.Error = err.Error()
		status = http.StatusBadGateway
		outcome = "error"
	}
	s.metrics.Inc(ctx, metrics.Generations, map[string]string{"kind": gen.Kind, "outcome": outcome}, 1)

	entry := logging.FromContext(c).WithFields(logrus.Fields{
		"kind":        gen.Kind,
		"duration_ms": gen.DurationMs,
	})
	if saveErr := s.db.SaveGeneration(gen); saveErr != nil {
		entry.WithError(saveErr).Warn("record generation")
	} else {
		resp.ID = gen.ID
	}
	if err != nil {
		entry.WithError(err).Warn("generation failed")
		_ = c.Error(err)
	} else {
		entry.Info("generation completed")
	}
	c.JSON(status, resp)
}

func (s *Server) handleListGenerations(c *gin.Context) {
	offset, limit := parsePaging(c)
	rows, total, err := s.db.ListGenerations(store.GenerationQuery{
		Kind:   c.Query("kind"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	items := make([]GenerationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, GenerationFromModel(row))
	}
	c.JSON(http.StatusOK, GenerationsResponse{Items: items, Total: total})
}

// callAIWithRetry retries call on rate limits and transient upstream errors
// with exponential backoff, honouring ctx cancellation between attempts.
func callAIWithRetry(ctx context.Context, s *Server, kind string, call func(context.Context) (string, error)) (string, error) {
	delay := s.initialBackoff
	var lastErr error
	for attempt := 0; attempt < aiMaxRetries; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !ai.IsRetryable(err) || attempt == aiMaxRetries-1 {
			break
		}

		s.metrics.Inc(ctx, metrics.GenerationRetries, map[string]string{"kind": kind}, 1)
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":    kind,
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("retrying generation")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > aiMaxBackoff {
			delay = aiMaxBackoff
		}
	}
	return "", fmt.Errorf("%s generation: %w", kind, lastErr)
}
