package synth

import "strings"

// SketchStyle selects the sketch template.
type SketchStyle string

const (
	SketchTechnical SketchStyle = "technical"
	SketchArtistic  SketchStyle = "artistic"
	SketchMinimal   SketchStyle = "minimal"
	SketchDetailed  SketchStyle = "detailed"

	defaultSketchStyle = SketchDetailed
)

var sketchTemplates = map[SketchStyle]string{
	SketchTechnical: "Create a detailed technical fashion sketch with precise construction details, measurements, and fabric specifications.",
	SketchArtistic:  "Create an artistic fashion illustration with flowing lines, dramatic poses, and emphasis on style and movement.",
	SketchMinimal:   "Create a clean, minimal fashion sketch focusing on essential design elements and silhouette.",
	SketchDetailed:  "Create a comprehensive fashion sketch showing both design aesthetics and technical details.",
}

const (
	sketchShould = "The sketch should:\n" +
		"- Use professional fashion illustration techniques\n" +
		"- Show clear design intentions\n" +
		"- Highlight sustainable design elements\n" +
		"- Include fabric behavior and draping"

	sketchSustainable = "Emphasize sustainable design elements such as:\n" +
		"- Zero-waste pattern cutting considerations\n" +
		"- Modular or transformable components\n" +
		"- Repair-friendly construction\n" +
		"- Biodegradable material suggestions\n" +
		"- Minimal seam construction"

	sketchConstruction = "Include technical details such as:\n" +
		"- Seam placements\n" +
		"- Closure methods\n" +
		"- Fabric grain lines\n" +
		"- Key measurements\n" +
		"- Special sustainable construction notes"

	sketchAdditional = "Additional requirements:\n" +
		"- Include front view and at least one detail view\n" +
		"- Show fabric texture suggestions\n" +
		"- Include sustainable material callouts\n" +
		"- Note any zero-waste design elements\n" +
		"- Highlight modular or adaptable features"

	sketchNotes = "Style notes: Professional fashion illustration focusing on sustainable and ethical design elements."
)

// ResolveSketch returns the style and template for key, substituting the
// detailed template for unknown keys. Keys match exactly.
func ResolveSketch(key string) (style SketchStyle, template string, fallback bool) {
	style = SketchStyle(key)
	if tpl, ok := sketchTemplates[style]; ok {
		return style, tpl, false
	}
	return defaultSketchStyle, sketchTemplates[defaultSketchStyle], true
}

// SketchStyles lists the known sketch styles.
func SketchStyles() []SketchStyle {
	return []SketchStyle{SketchTechnical, SketchArtistic, SketchMinimal, SketchDetailed}
}

// SketchComposition is a composed sketch prompt.
type SketchComposition struct {
	Prompt        string      `json:"prompt"`
	RequestedKey  string      `json:"requested_style"`
	ResolvedStyle SketchStyle `json:"resolved_style"`
	StyleFallback bool        `json:"style_fallback"`
}

// ComposeSketch builds a sketch prompt. The sustainability and construction
// blocks always follow the description, before the style template.
func ComposeSketch(description, styleKey string) SketchComposition {
	style, tpl, fallback := ResolveSketch(styleKey)
	blocks := []string{
		"Fashion design sketch: " + description,
		sketchSustainable,
		sketchConstruction,
		tpl + "\n" + sketchShould,
		sketchAdditional,
		sketchNotes,
	}
	return SketchComposition{
		Prompt:        strings.Join(blocks, "\n\n"),
		RequestedKey:  styleKey,
		ResolvedStyle: style,
		StyleFallback: fallback,
	}
}

// SynthesizeSketch returns only the composed sketch prompt.
func SynthesizeSketch(description, styleKey string) string {
	return ComposeSketch(description, styleKey).Prompt
}
