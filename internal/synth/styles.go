package synth

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var defaultStylesYAML []byte

// Field names a descriptive attribute of a style preset.
type Field string

const (
	FieldLighting    Field = "lighting"
	FieldComposition Field = "composition"
	FieldFocus       Field = "focus"
	FieldTechnique   Field = "technique"
	FieldAdditional  Field = "additional"
)

func (f Field) valid() bool {
	switch f {
	case FieldLighting, FieldComposition, FieldFocus, FieldTechnique, FieldAdditional:
		return true
	}
	return false
}

// Title returns the field name with its first letter upper-cased.
func (f Field) Title() string {
	if f == "" {
		return ""
	}
	return strings.ToUpper(string(f[:1])) + string(f[1:])
}

// Attribute is one field/value pair of a preset.
type Attribute struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Preset is a named style bundle. Attributes keep their declaration order.
type Preset struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Attributes  []Attribute `json:"attributes"`
}

// Render formats the non-empty attributes as "Field: value" lines.
func (p Preset) Render() string {
	lines := make([]string, 0, len(p.Attributes))
	for _, attr := range p.Attributes {
		if strings.TrimSpace(attr.Value) == "" {
			continue
		}
		lines = append(lines, attr.Field.Title()+": "+attr.Value)
	}
	return strings.Join(lines, "\n")
}

// StyleTable is the read-only lookup from style key to preset.
type StyleTable struct {
	defaultKey string
	order      []string
	presets    map[string]Preset
	menus      map[Category][]string
}

var (
	stylesOnce    sync.Once
	defaultStyles *StyleTable
)

// DefaultStyles returns the embedded style table.
func DefaultStyles() *StyleTable {
	stylesOnce.Do(func() {
		table, err := LoadStyleTable(defaultStylesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded style table: %v", err))
		}
		defaultStyles = table
	})
	return defaultStyles
}

type styleFile struct {
	Default string              `yaml:"default"`
	Presets yaml.Node           `yaml:"presets"`
	Menus   map[string][]string `yaml:"menus"`
}

type presetDoc struct {
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Attributes  yaml.Node `yaml:"attributes"`
}

// LoadStyleTable parses a YAML style table. Presets and their attributes are
// walked as mapping nodes so that declaration order survives decoding.
func LoadStyleTable(data []byte) (*StyleTable, error) {
	var doc styleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal style table: %w", err)
	}
	if doc.Presets.Kind != yaml.MappingNode {
		return nil, errors.New("style table: presets must be a mapping")
	}

	table := &StyleTable{
		defaultKey: strings.TrimSpace(doc.Default),
		presets:    make(map[string]Preset),
		menus:      make(map[Category][]string),
	}

	for i := 0; i+1 < len(doc.Presets.Content); i += 2 {
		key := strings.TrimSpace(doc.Presets.Content[i].Value)
		if key == "" {
			return nil, errors.New("style table: empty preset key")
		}
		if _, dup := table.presets[key]; dup {
			return nil, fmt.Errorf("style table: duplicate preset %q", key)
		}
		var pd presetDoc
		if err := doc.Presets.Content[i+1].Decode(&pd); err != nil {
			return nil, fmt.Errorf("preset %q: %w", key, err)
		}
		attrs, err := decodeAttributes(&pd.Attributes)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", key, err)
		}
		table.presets[key] = Preset{Key: key, Label: pd.Label, Description: pd.Description, Attributes: attrs}
		table.order = append(table.order, key)
	}

	if _, ok := table.presets[table.defaultKey]; !ok {
		return nil, fmt.Errorf("style table: default preset %q not defined", table.defaultKey)
	}

	for name, keys := range doc.Menus {
		cat, ok := ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("style table: unknown menu category %q", name)
		}
		for _, key := range keys {
			if _, ok := table.presets[key]; !ok {
				return nil, fmt.Errorf("style table: menu %q references unknown preset %q", name, key)
			}
		}
		table.menus[cat] = append([]string(nil), keys...)
	}

	return table, nil
}

func decodeAttributes(node *yaml.Node) ([]Attribute, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("attributes must be a mapping")
	}
	var attrs []Attribute
	for i := 0; i+1 < len(node.Content); i += 2 {
		field := Field(strings.TrimSpace(node.Content[i].Value))
		if !field.valid() {
			return nil, fmt.Errorf("unknown attribute %q", field)
		}
		value := strings.TrimSpace(node.Content[i+1].Value)
		if value == "" {
			continue
		}
		attrs = append(attrs, Attribute{Field: field, Value: value})
	}
	if len(attrs) == 0 {
		return nil, errors.New("no attributes")
	}
	return attrs, nil
}

// DefaultKey is the preset substituted for unknown style keys.
func (t *StyleTable) DefaultKey() string {
	return t.defaultKey
}

// Lookup returns the preset stored under key.
func (t *StyleTable) Lookup(key string) (Preset, bool) {
	p, ok := t.presets[key]
	return p, ok
}

// Resolve always returns a preset: the one for key, or the default preset
// when key is unknown. fallback reports the substitution.
func (t *StyleTable) Resolve(key string) (preset Preset, fallback bool) {
	if p, ok := t.presets[key]; ok {
		return p, false
	}
	return t.presets[t.defaultKey], true
}

// Keys lists preset keys in declaration order.
func (t *StyleTable) Keys() []string {
	return append([]string(nil), t.order...)
}

// Options returns the style menu offered for a content category.
func (t *StyleTable) Options(category Category) []StyleOption {
	keys := t.menus[category]
	out := make([]StyleOption, 0, len(keys))
	for _, key := range keys {
		p := t.presets[key]
		out = append(out, StyleOption{Key: p.Key, Label: p.Label, Description: p.Description})
	}
	return out
}

// StyleOption is a menu entry shown to the user.
type StyleOption struct {
	Key         string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}
