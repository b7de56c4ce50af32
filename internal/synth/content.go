package synth

import "strings"

// Category is the content category a request is declared under. It selects
// the style menu offered to the user.
type Category string

const (
	CategoryGarment Category = "garment"
	CategoryFabric  Category = "fabric"
	CategorySketch  Category = "sketch"
)

// ParseCategory maps a case-insensitive name to a Category.
func ParseCategory(name string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(name))) {
	case CategoryGarment:
		return CategoryGarment, true
	case CategoryFabric:
		return CategoryFabric, true
	case CategorySketch:
		return CategorySketch, true
	}
	return "", false
}

// ContentType is the content kind derived from the description text. It picks
// the closing template independently of the declared Category.
type ContentType int

const (
	ContentGeneric ContentType = iota
	ContentFabric
	ContentGarment
)

func (c ContentType) String() string {
	switch c {
	case ContentFabric:
		return "fabric"
	case ContentGarment:
		return "garment"
	default:
		return "generic"
	}
}

// MarshalText renders the content type by name.
func (c ContentType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var (
	fabricKeywords  = []string{"fabric", "material"}
	garmentKeywords = []string{"garment", "clothing"}
)

// ClassifyContent scans the description for keywords, case-insensitively.
// Fabric keywords take precedence over garment keywords.
func ClassifyContent(description string) ContentType {
	lower := strings.ToLower(description)
	if containsAny(lower, fabricKeywords) {
		return ContentFabric
	}
	if containsAny(lower, garmentKeywords) {
		return ContentGarment
	}
	return ContentGeneric
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
