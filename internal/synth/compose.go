package synth

import "strings"

const (
	styleHeader = "Style Requirements:"

	baseClosing = "This is for a sustainable fashion platform focusing on eco-friendly materials and ethical production. " +
		"Create a high-quality, professional image with excellent lighting and clear details. The image should be:\n" +
		"- Photographed/rendered in high resolution\n" +
		"- Set against a clean, neutral background\n" +
		"- Showing clear texture and material details\n" +
		"- Emphasizing sustainable and natural qualities"

	fabricClosing = "The fabric should demonstrate:\n" +
		"- Natural fiber characteristics and texture\n" +
		"- Weave pattern and structure\n" +
		"- Surface details and draping quality\n" +
		"- Material thickness and weight appearance\n" +
		"Include a sense of scale and close-up texture detail."

	garmentClosing = "The garment should showcase:\n" +
		"- Clean construction and finishing\n" +
		"- Natural draping and movement\n" +
		"- Sustainable design elements\n" +
		"- Ethical craftsmanship details"

	additionalRequirements = "Additional Requirements:\n" +
		"- Maintain consistent style throughout the image\n" +
		"- Ensure professional quality and clarity\n" +
		"- Emphasize sustainable and ethical aspects\n" +
		"- Follow the specified technique and focus points\n" +
		"- Create a cohesive visual narrative"
)

// ClosingTemplate returns the closing block for a content type: the base
// boilerplate, followed by the content-specific bullets when there are any.
func ClosingTemplate(content ContentType) string {
	switch content {
	case ContentFabric:
		return baseClosing + "\n" + fabricClosing
	case ContentGarment:
		return baseClosing + "\n" + garmentClosing
	default:
		return baseClosing
	}
}

// Request is the input of an image prompt composition.
type Request struct {
	Category    Category `json:"category"`
	Style       string   `json:"style"`
	Description string   `json:"description"`
}

// Composition is a composed prompt together with how it was shaped.
type Composition struct {
	Prompt        string      `json:"prompt"`
	Category      Category    `json:"category"`
	ContentType   ContentType `json:"content_type"`
	RequestedKey  string      `json:"requested_style"`
	ResolvedKey   string      `json:"resolved_style"`
	StyleFallback bool        `json:"style_fallback"`
}

// Compose builds the image prompt for req against the table.
func (t *StyleTable) Compose(req Request) Composition {
	preset, fallback := t.Resolve(req.Style)
	content := ClassifyContent(req.Description)

	blocks := []string{
		req.Description,
		styleHeader + "\n" + preset.Render(),
		ClosingTemplate(content),
		additionalRequirements,
	}

	return Composition{
		Prompt:        strings.Join(blocks, "\n\n"),
		Category:      req.Category,
		ContentType:   content,
		RequestedKey:  req.Style,
		ResolvedKey:   preset.Key,
		StyleFallback: fallback,
	}
}

// Synthesize composes an image prompt with the embedded style table.
func Synthesize(category Category, styleKey, description string) string {
	return DefaultStyles().Compose(Request{Category: category, Style: styleKey, Description: description}).Prompt
}
