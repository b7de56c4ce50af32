package synth

import (
	"fmt"
	"strings"
)

// ChatPrompt is a composed chat-completion request: system and user messages
// plus sampling limits.
type ChatPrompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

const (
	suggestionSystem = "You are a fashion expert AI assistant helping users with sustainable fashion choices.\n" +
		"Focus on eco-friendly materials, sustainable practices, and personalized style recommendations.\n" +
		"Keep responses concise but informative."

	analysisSystem = "You are a professional fashion consultant specializing in sustainable fashion and personal styling."

	// DefaultSustainableChoices is the sustainability note the questionnaire sends.
	DefaultSustainableChoices = "Focus on sustainable and eco-friendly recommendations"

	chatTemperature = 0.7
)

// SuggestionPrompt wraps free-form user input for the fashion suggestions chat.
func SuggestionPrompt(userInput string) ChatPrompt {
	return ChatPrompt{
		System:      suggestionSystem,
		User:        userInput,
		MaxTokens:   500,
		Temperature: chatTemperature,
	}
}

// AnalysisPrompt builds the style analysis request from the preference
// summary, the measurements and the sustainability note.
func AnalysisPrompt(preferences, measurements, sustainableChoices string) ChatPrompt {
	var b strings.Builder
	fmt.Fprintf(&b, "User Preferences: %s\n", strings.TrimSpace(preferences))
	fmt.Fprintf(&b, "Measurements: %s\n", strings.TrimSpace(measurements))
	fmt.Fprintf(&b, "Sustainable Choices: %s\n\n", strings.TrimSpace(sustainableChoices))
	b.WriteString("Please provide a detailed style analysis including:\n")
	b.WriteString("1. Recommended sustainable fabrics based on preferences\n")
	b.WriteString("2. Suggested clothing styles that would be flattering\n")
	b.WriteString("3. Sustainable fashion tips personalized to the user\n")
	b.WriteString("4. Color palette recommendations\n")
	b.WriteString("Keep the response focused on sustainable fashion and practical advice.")

	return ChatPrompt{
		System:      analysisSystem,
		User:        b.String(),
		MaxTokens:   1000,
		Temperature: chatTemperature,
	}
}

// StylePreferences are the answers of the style questionnaire.
type StylePreferences struct {
	StyleType              string   `json:"style_type"`
	ColorPreferences       []string `json:"color_preferences"`
	OccasionWear           []string `json:"occasion_wear"`
	SustainabilityPriority int      `json:"sustainability_priority"`
	ComfortLevel           string   `json:"comfort_level"`
	ExistingWardrobe       string   `json:"existing_wardrobe"`
}

// Questionnaire defaults.
const (
	DefaultSustainabilityPriority = 7
	DefaultComfortLevel           = "balanced"
)

// Normalize fills unset fields with the questionnaire defaults and clamps the
// sustainability priority to 1..10.
func (p StylePreferences) Normalize() StylePreferences {
	if p.SustainabilityPriority == 0 {
		p.SustainabilityPriority = DefaultSustainabilityPriority
	}
	if p.SustainabilityPriority < 1 {
		p.SustainabilityPriority = 1
	}
	if p.SustainabilityPriority > 10 {
		p.SustainabilityPriority = 10
	}
	if strings.TrimSpace(p.ComfortLevel) == "" {
		p.ComfortLevel = DefaultComfortLevel
	}
	return p
}

// Summary renders the preferences block sent as "User Preferences".
func (p StylePreferences) Summary() string {
	p = p.Normalize()
	lines := []string{
		"Style Type: " + p.StyleType,
		"Color Preferences: " + strings.Join(p.ColorPreferences, ", "),
		"Occasions: " + strings.Join(p.OccasionWear, ", "),
		fmt.Sprintf("Sustainability Priority: %d/10", p.SustainabilityPriority),
		"Comfort Level: " + p.ComfortLevel,
		"Current Wardrobe: " + p.ExistingWardrobe,
	}
	return strings.Join(lines, "\n")
}
