package api

import (
	"time"

	"caelus/backend/internal/profile"
	"caelus/backend/internal/store"
	"caelus/backend/internal/synth"
)

// QuestionDTO is a question as presented to the visitor. Weights stay server side.
type QuestionDTO struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuestionsResponse lists the active question bank.
type QuestionsResponse struct {
	Version   string        `json:"version"`
	Questions []QuestionDTO `json:"questions"`
}

// AnswersRequest carries a (possibly partial) answer set keyed by question index.
type AnswersRequest struct {
	Answers profile.AnswerSet `json:"answers"`
}

// ProfileDTO is the API representation of a persisted profile.
type ProfileDTO struct {
	ID          string                     `json:"id"`
	Type        string                     `json:"type"`
	Scores      profile.Scores             `json:"scores"`
	Answers     profile.AnswerSet          `json:"answers"`
	BankVersion string                     `json:"bank_version"`
	CreatedAt   time.Time                  `json:"created_at"`
	Warnings    []profile.IntegrityWarning `json:"warnings,omitempty"`
}

// ProfileFromModel converts a stored profile into its DTO.
func ProfileFromModel(p store.Profile) ProfileDTO {
	return ProfileDTO{
		ID:          p.ID,
		Type:        p.Type,
		Scores:      profile.Scores{Designer: p.DesignerScore, Consumer: p.ConsumerScore},
		Answers:     p.Answers(),
		BankVersion: p.BankVersion,
		CreatedAt:   p.CreatedAt,
	}
}

// ProfileStatsResponse reports stored profile counts.
type ProfileStatsResponse struct {
	Designer int64 `json:"designer"`
	Consumer int64 `json:"consumer"`
	Total    int64 `json:"total"`
}

// StylesResponse is the style menu for one category.
type StylesResponse struct {
	Category        synth.Category      `json:"category"`
	Default         string              `json:"default"`
	Options         []synth.StyleOption `json:"options"`
	SketchTemplates []synth.SketchStyle `json:"sketch_templates,omitempty"`
}

// ImagePromptRequest asks for an image prompt, optionally generated.
type ImagePromptRequest struct {
	Category    string `json:"category"`
	Style       string `json:"style"`
	Description string `json:"description"`
}

// SketchPromptRequest asks for a sketch prompt, optionally generated.
type SketchPromptRequest struct {
	Style       string `json:"style"`
	Description string `json:"description"`
}

// SuggestionsRequest is free-form input for the fashion suggestions chat.
type SuggestionsRequest struct {
	Input string `json:"input"`
}

// AnalysisRequest carries the style questionnaire for the analysis chat.
type AnalysisRequest struct {
	Preferences        synth.StylePreferences `json:"preferences"`
	Measurements       string                 `json:"measurements"`
	SustainableChoices string                 `json:"sustainable_choices"`
}

// GenerationResponse is returned by every generate endpoint. Prompt is always
// populated so a failed call can be retried by the caller.
type GenerationResponse struct {
	ID            string `json:"id,omitempty"`
	Kind          string `json:"kind"`
	Prompt        string `json:"prompt"`
	ImageURL      string `json:"image_url,omitempty"`
	Text          string `json:"text,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
	ResolvedStyle string `json:"resolved_style,omitempty"`
	StyleFallback bool   `json:"style_fallback"`
	DurationMs    int64  `json:"duration_ms"`
	Error         string `json:"error,omitempty"`
}

// GenerationDTO is a generation log entry.
type GenerationDTO struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Category     string    `json:"category,omitempty"`
	RequestedKey string    `json:"requested_style,omitempty"`
	ResolvedKey  string    `json:"resolved_style,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	Prompt       string    `json:"prompt"`
	Output       string    `json:"output,omitempty"`
	Error        string    `json:"error,omitempty"`
	Succeeded    bool      `json:"succeeded"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// GenerationFromModel converts a stored generation into its DTO.
func GenerationFromModel(g store.Generation) GenerationDTO {
	return GenerationDTO{
		ID:           g.ID,
		Kind:         g.Kind,
		Category:     g.Category,
		RequestedKey: g.RequestedKey,
		ResolvedKey:  g.ResolvedKey,
		ContentType:  g.ContentType,
		Prompt:       g.Prompt,
		Output:       g.Output,
		Error:        g.Error,
		Succeeded:    g.Succeeded(),
		DurationMs:   g.DurationMs,
		CreatedAt:    g.CreatedAt,
	}
}

// GenerationsResponse is a page of the generation log.
type GenerationsResponse struct {
	Items []GenerationDTO `json:"items"`
	Total int64           `json:"total"`
}
