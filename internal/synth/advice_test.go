package synth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestionPrompt(t *testing.T) {
	p := SuggestionPrompt("what should I wear to a summer wedding?")
	require.Equal(t, "what should I wear to a summer wedding?", p.User)
	require.Equal(t, 500, p.MaxTokens)
	require.InDelta(t, 0.7, p.Temperature, 1e-9)
	require.Contains(t, p.System, "sustainable fashion choices")
}

func TestAnalysisPrompt(t *testing.T) {
	prefs := StylePreferences{
		StyleType:        "Minimalist",
		ColorPreferences: []string{"Neutral", "Earth tones"},
		OccasionWear:     []string{"Work/Professional"},
		ExistingWardrobe: "mostly linen",
	}
	p := AnalysisPrompt(prefs.Summary(), "", DefaultSustainableChoices)

	require.Equal(t, 1000, p.MaxTokens)
	require.Contains(t, p.User, "User Preferences: Style Type: Minimalist\n")
	require.Contains(t, p.User, "Color Preferences: Neutral, Earth tones")
	require.Contains(t, p.User, "Sustainability Priority: 7/10")
	require.Contains(t, p.User, "Comfort Level: balanced")
	require.Contains(t, p.User, "Measurements: \n")
	require.Contains(t, p.User, "Sustainable Choices: "+DefaultSustainableChoices)
	require.Contains(t, p.User, "4. Color palette recommendations")
}

func TestStylePreferencesNormalize(t *testing.T) {
	require.Equal(t, 10, StylePreferences{SustainabilityPriority: 42}.Normalize().SustainabilityPriority)
	require.Equal(t, 1, StylePreferences{SustainabilityPriority: -3}.Normalize().SustainabilityPriority)
	require.Equal(t, "comfort", StylePreferences{ComfortLevel: "comfort"}.Normalize().ComfortLevel)
}
