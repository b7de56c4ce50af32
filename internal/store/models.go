package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Generation kinds recorded in the generation log.
const (
	KindImage       = "image"
	KindSketch      = "sketch"
	KindSuggestions = "suggestions"
	KindAnalysis    = "analysis"
)

// Profile is a finalized questionnaire outcome.
type Profile struct {
	ID            string `gorm:"primaryKey;size:36"`
	Type          string `gorm:"size:16;index"`
	DesignerScore int
	ConsumerScore int
	AnswersJSON   string    `gorm:"type:text"`
	BankVersion   string    `gorm:"size:32"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// SetAnswers persists the answer set as JSON keyed by question index.
func (p *Profile) SetAnswers(answers map[int]string) {
	if answers == nil {
		p.AnswersJSON = "{}"
		return
	}
	payload, _ := json.Marshal(answers)
	p.AnswersJSON = string(payload)
}

// Answers returns the decoded answer set.
func (p *Profile) Answers() map[int]string {
	if strings.TrimSpace(p.AnswersJSON) == "" {
		return nil
	}
	var out map[int]string
	if err := json.Unmarshal([]byte(p.AnswersJSON), &out); err != nil {
		return nil
	}
	return out
}

// Generation records one call to a generative collaborator, successful or not.
type Generation struct {
	ID           string `gorm:"primaryKey;size:36"`
	Kind         string `gorm:"size:16;index"`
	Category     string `gorm:"size:16"`
	RequestedKey string `gorm:"size:64"`
	ResolvedKey  string `gorm:"size:64"`
	ContentType  string `gorm:"size:16"`
	Prompt       string `gorm:"type:text"`
	Output       string `gorm:"type:text"`
	Error        string `gorm:"type:text"`
	DurationMs   int64
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

// Succeeded reports whether the generation produced output.
func (g *Generation) Succeeded() bool {
	return g.Error == "" && strings.TrimSpace(g.Output) != ""
}
