package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultBankYAML []byte

// Label is one of the two visitor types the questionnaire decides between.
type Label string

const (
	LabelDesigner Label = "designer"
	LabelConsumer Label = "consumer"
)

// Weights holds the per-label weight vectors of a question, aligned with its options.
type Weights struct {
	Designer []int `yaml:"designer" json:"designer"`
	Consumer []int `yaml:"consumer" json:"consumer"`
}

// Question is a single multiple-choice entry of the bank.
type Question struct {
	Prompt  string   `yaml:"prompt" json:"question"`
	Options []string `yaml:"options" json:"options"`
	Weights Weights  `yaml:"weights" json:"-"`
}

// Bank is the ordered, versioned question bank.
type Bank struct {
	Version   string     `yaml:"version" json:"version"`
	Questions []Question `yaml:"questions" json:"questions"`
}

var (
	defaultOnce sync.Once
	defaultBank *Bank
)

// DefaultBank returns the question bank shipped with the service. The returned
// value is shared and must be treated as read-only.
func DefaultBank() *Bank {
	defaultOnce.Do(func() {
		bank, err := LoadBank(defaultBankYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded question bank: %v", err))
		}
		defaultBank = bank
	})
	return defaultBank
}

// LoadBank parses a YAML question bank and validates it.
func LoadBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return &bank, nil
}

// Len reports the number of questions in the bank.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Questions)
}

// Validate checks that every weight vector is aligned with its options.
func (b *Bank) Validate() error {
	if b == nil {
		return errors.New("question bank is nil")
	}
	if len(b.Questions) == 0 {
		return errors.New("question bank has no questions")
	}
	for i, q := range b.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("question %d: empty prompt", i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %d: no options", i)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, ok := seen[opt]; ok {
				return fmt.Errorf("question %d: duplicate option %q", i, opt)
			}
			seen[opt] = struct{}{}
		}
		if len(q.Weights.Designer) != len(q.Options) {
			return fmt.Errorf("question %d: %d designer weights for %d options", i, len(q.Weights.Designer), len(q.Options))
		}
		if len(q.Weights.Consumer) != len(q.Options) {
			return fmt.Errorf("question %d: %d consumer weights for %d options", i, len(q.Weights.Consumer), len(q.Options))
		}
		for j := range q.Options {
			if q.Weights.Designer[j] < 0 || q.Weights.Consumer[j] < 0 {
				return fmt.Errorf("question %d option %d: negative weight", i, j)
			}
		}
	}
	return nil
}

// optionIndex returns the position of answer within the options, or -1.
// Matching is exact; no trimming or case folding.
func (q Question) optionIndex(answer string) int {
	for i, opt := range q.Options {
		if opt == answer {
			return i
		}
	}
	return -1
}
