package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"caelus/backend/internal/ai"
	"caelus/backend/internal/metrics"
	"caelus/backend/internal/profile"
	"caelus/backend/internal/store"
)

const testBankYAML = `
version: test-1
questions:
  - prompt: "Why are you here?"
    options: ["Create", "Shop"]
    weights:
      designer: [5, 0]
      consumer: [0, 5]
  - prompt: "How often do you sew?"
    options: ["Daily", "Never"]
    weights:
      designer: [3, 0]
      consumer: [0, 3]
`

type fakeImages struct {
	mu      sync.Mutex
	enabled bool
	url     string
	errs    []error
	prompts []string
}

func (f *fakeImages) Enabled() bool { return f.enabled }

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return f.url, nil
}

type fakeText struct {
	enabled  bool
	text     string
	requests []ai.ChatRequest
}

func (f *fakeText) Enabled() bool { return f.enabled }

func (f *fakeText) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.text, nil
}

type statusError int

func (e statusError) Error() string   { return "upstream status " + http.StatusText(int(e)) }
func (e statusError) HTTPStatus() int { return int(e) }

type testEnv struct {
	server *Server
	router *gin.Engine
	images *fakeImages
	text   *fakeText
}

func newTestEnv(t *testing.T, images *fakeImages, text *fakeText) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bank, err := profile.LoadBank([]byte(testBankYAML))
	require.NoError(t, err)

	cfg := Config{
		DB:             store.Options{Path: filepath.Join(t.TempDir(), "caelus.db"), Silent: true},
		Bank:           bank,
		Metrics:        metrics.NewRegistry(),
		InitialBackoff: time.Millisecond,
		DisableAI:      true,
	}
	if images != nil {
		cfg.Images = images
	}
	if text != nil {
		cfg.Text = text
	}
	server, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	router, err := server.Router()
	require.NoError(t, err)
	return &testEnv{server: server, router: router, images: images, text: text}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndConfig(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[map[string]any](t, rec)
	require.Equal(t, "test-1", cfg["bank_version"])
	require.EqualValues(t, 2, cfg["question_count"])
	require.Equal(t, false, cfg["ai_enabled"])
	require.Equal(t, "realistic-studio", cfg["default_style"])
}

func TestQuestionsHideWeights(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "weights")

	resp := decode[QuestionsResponse](t, rec)
	require.Equal(t, "test-1", resp.Version)
	require.Len(t, resp.Questions, 2)
	require.Equal(t, 1, resp.Questions[1].Index)
	require.Equal(t, []string{"Daily", "Never"}, resp.Questions[1].Options)
}

func TestAssessPartialAnswers(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/profile/assess", map[string]any{
		"answers": map[string]string{"0": "Create", "1": "Sometimes"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assessment := decode[profile.Assessment](t, rec)
	require.Equal(t, profile.LabelDesigner, assessment.Result.Type)
	require.Equal(t, 5, assessment.Result.Scores.Designer)
	require.Equal(t, 1, assessment.Answered)
	require.False(t, assessment.Complete)
	require.Len(t, assessment.Warnings, 1)
	require.Equal(t, profile.ReasonUnknownOption, assessment.Warnings[0].Reason)

	require.EqualValues(t, 1, env.server.Metrics().Value(metrics.IntegrityWarnings, map[string]string{"reason": profile.ReasonUnknownOption}))
}

func TestSaveProfileLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/profile", map[string]any{
		"answers": map[string]string{"0": "Shop"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "questionnaire incomplete")

	rec = env.do(t, http.MethodPost, "/api/profile", map[string]any{
		"answers": map[string]string{"0": "Shop", "1": "Daily"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decode[ProfileDTO](t, rec)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, "consumer", saved.Type)
	require.Equal(t, profile.Scores{Designer: 3, Consumer: 5}, saved.Scores)
	require.Equal(t, "test-1", saved.BankVersion)

	rec = env.do(t, http.MethodGet, "/api/profile/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[ProfileDTO](t, rec)
	require.Equal(t, "Daily", fetched.Answers[1])

	rec = env.do(t, http.MethodGet, "/api/profile/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/profile/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[ProfileStatsResponse](t, rec)
	require.Equal(t, ProfileStatsResponse{Consumer: 1, Total: 1}, stats)
}

func TestSaveProfileDropsUnscorableAnswers(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/profile", map[string]any{
		"answers": map[string]string{"0": "Create", "1": "Daily", "99": "junk"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decode[ProfileDTO](t, rec)
	require.Equal(t, profile.AnswerSet{0: "Create", 1: "Daily"}, saved.Answers)
	require.Len(t, saved.Warnings, 1)
	require.Equal(t, 99, saved.Warnings[0].QuestionIndex)
	require.Equal(t, profile.ReasonOutOfRange, saved.Warnings[0].Reason)
	require.EqualValues(t, 1, env.server.Metrics().Value(metrics.IntegrityWarnings, map[string]string{"reason": profile.ReasonOutOfRange}))

	stored, err := env.server.db.GetProfile(saved.ID)
	require.NoError(t, err)
	require.Equal(t, map[int]string{0: "Create", 1: "Daily"}, stored.Answers())

	rec = env.do(t, http.MethodGet, "/api/profile/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "junk")
}

func TestStyles(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodGet, "/api/styles?category=fabric", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[StylesResponse](t, rec)
	require.Equal(t, "fabric", string(resp.Category))
	require.NotEmpty(t, resp.Options)
	require.Empty(t, resp.SketchTemplates)

	rec = env.do(t, http.MethodGet, "/api/styles?category=sketch", nil)
	resp = decode[StylesResponse](t, rec)
	require.Len(t, resp.SketchTemplates, 4)

	rec = env.do(t, http.MethodGet, "/api/styles?category=shoes", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImagePromptUsesDescriptionKeywords(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/prompts/image", ImagePromptRequest{
		Category:    "garment",
		Style:       "no-such-style",
		Description: "A Fabric swatch of hemp",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	require.Equal(t, "fabric", resp["content_type"])
	require.Equal(t, "realistic-studio", resp["resolved_style"])
	require.Equal(t, true, resp["style_fallback"])
	require.True(t, strings.HasPrefix(resp["prompt"].(string), "A Fabric swatch of hemp\n\n"))

	rec = env.do(t, http.MethodPost, "/api/prompts/image", ImagePromptRequest{Description: "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSketchPrompt(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/prompts/sketch", SketchPromptRequest{Style: "minimal", Description: "wrap dress"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	require.Equal(t, "minimal", resp["resolved_style"])
	require.True(t, strings.HasPrefix(resp["prompt"].(string), "Fashion design sketch: wrap dress"))
}

func TestGenerateDisabledReturnsPrompt(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/generate/image", ImagePromptRequest{Description: "linen shirt"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[GenerationResponse](t, rec)
	require.Contains(t, resp.Prompt, "linen shirt")
	require.Equal(t, ai.ErrDisabled.Error(), resp.Error)

	rec = env.do(t, http.MethodPost, "/api/generate/suggestions", SuggestionsRequest{Input: "what to wear"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateImageRetriesAndLogs(t *testing.T) {
	images := &fakeImages{
		enabled: true,
		url:     "https://img.example/1.png",
		errs:    []error{statusError(http.StatusTooManyRequests), nil},
	}
	env := newTestEnv(t, images, nil)

	rec := env.do(t, http.MethodPost, "/api/generate/image", ImagePromptRequest{
		Category:    "garment",
		Style:       "watercolor",
		Description: "organic cotton garment",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[GenerationResponse](t, rec)
	require.Equal(t, "https://img.example/1.png", resp.ImageURL)
	require.Equal(t, "garment", resp.ContentType)
	require.NotEmpty(t, resp.ID)
	require.Len(t, images.prompts, 2)
	require.Equal(t, resp.Prompt, images.prompts[0])
	require.EqualValues(t, 1, env.server.Metrics().Value(metrics.GenerationRetries, map[string]string{"kind": "image"}))

	rec = env.do(t, http.MethodGet, "/api/generations?kind=image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[GenerationsResponse](t, rec)
	require.EqualValues(t, 1, list.Total)
	require.Equal(t, "watercolor", list.Items[0].ResolvedKey)
	require.Equal(t, "https://img.example/1.png", list.Items[0].Output)
	require.True(t, list.Items[0].Succeeded)
}

func TestGenerateSketchFailureIsBadGateway(t *testing.T) {
	images := &fakeImages{enabled: true, errs: []error{errors.New("content policy")}}
	env := newTestEnv(t, images, nil)

	rec := env.do(t, http.MethodPost, "/api/generate/sketch", SketchPromptRequest{Style: "technical", Description: "bomber jacket"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[GenerationResponse](t, rec)
	require.Contains(t, resp.Error, "content policy")
	require.Contains(t, resp.Prompt, "bomber jacket")
	require.Len(t, images.prompts, 1)

	rec = env.do(t, http.MethodGet, "/api/generations", nil)
	list := decode[GenerationsResponse](t, rec)
	require.EqualValues(t, 1, list.Total)
	require.Equal(t, "sketch", list.Items[0].Kind)
	require.Contains(t, list.Items[0].Error, "content policy")
	require.False(t, list.Items[0].Succeeded)
}

func TestGenerateChat(t *testing.T) {
	text := &fakeText{enabled: true, text: "Try a hemp blazer."}
	env := newTestEnv(t, nil, text)

	rec := env.do(t, http.MethodPost, "/api/generate/suggestions", SuggestionsRequest{Input: "office looks"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[GenerationResponse](t, rec)
	require.Equal(t, "Try a hemp blazer.", resp.Text)
	require.Equal(t, 500, text.requests[0].MaxTokens)
	require.Equal(t, "office looks", text.requests[0].User)

	rec = env.do(t, http.MethodPost, "/api/generate/analysis", map[string]any{
		"preferences":  map[string]any{"style_type": "minimalist", "color_preferences": []string{"navy"}},
		"measurements": "M",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1000, text.requests[1].MaxTokens)
	require.Contains(t, text.requests[1].User, "Measurements: M")
	require.Contains(t, text.requests[1].User, "Sustainable Choices: Focus on sustainable and eco-friendly recommendations")

	rec = env.do(t, http.MethodPost, "/api/generate/suggestions", SuggestionsRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.do(t, http.MethodPost, "/api/prompts/sketch", SketchPromptRequest{Style: "bogus", Description: "coat"})

	rec := env.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "prompts_composed_total{kind=sketch} 1")
	require.Contains(t, rec.Body.String(), "style_fallbacks_total{kind=sketch} 1")

	rec = env.do(t, http.MethodGet, "/api/metrics.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decode[map[string]int64](t, rec)
	require.EqualValues(t, 1, payload["prompts_composed_total{kind=sketch}"])
}
