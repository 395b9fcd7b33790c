package registry

// FieldKind enumerates the input widgets a config form can render.
type FieldKind string

const (
	FieldString  FieldKind = "string"
	FieldText    FieldKind = "text"
	FieldNumber  FieldKind = "number"
	FieldBoolean FieldKind = "boolean"
	FieldAddress FieldKind = "address"
	FieldSelect  FieldKind = "select"
	FieldURL     FieldKind = "url"
)

// Field describes one key of a node's configuration object.
type Field struct {
	Key         string      `json:"key" yaml:"key" toml:"key"`
	Label       string      `json:"label" yaml:"label" toml:"label"`
	Kind        FieldKind   `json:"kind" yaml:"kind" toml:"kind"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Options     []string    `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Rule is a CEL boolean expression over the variable `config`. A rule that
// evaluates to false produces Message as a validation issue.
type Rule struct {
	Expr    string `json:"expr" yaml:"expr" toml:"expr"`
	Message string `json:"message" yaml:"message" toml:"message"`
}

// Schema is the configuration contract of a node type. The form shown for a
// node is picked by looking its type up here.
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields" toml:"fields"`
	Rules  []Rule  `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
}

// Defaults returns a fresh config map populated with every field default.
func (s Schema) Defaults() map[string]interface{} {
	out := make(map[string]interface{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Default != nil {
			out[f.Key] = f.Default
		}
	}
	return out
}

// Entry is the display and configuration metadata of one node type.
type Entry struct {
	Type        string   `json:"type" yaml:"type" toml:"type"`
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Category    string   `json:"category" yaml:"category" toml:"category"`
	Tags        []string `json:"tags" yaml:"tags" toml:"tags"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	Schema      Schema   `json:"schema" yaml:"schema" toml:"schema"`
}

// Category groups node types in the palette.
type Category struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	Order       int    `json:"order" yaml:"order" toml:"order"`
}

// Issue is a single configuration problem found by ValidateConfig.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Stats summarizes the catalog.
type Stats struct {
	TotalTypes int            `json:"total_types"`
	Categories map[string]int `json:"categories"`
}

// FallbackCategory is assigned to node types the catalog does not know.
const FallbackCategory = "other"

// Fallback builds the generic entry shown for an unregistered node type.
func Fallback(nodeType string) Entry {
	name := nodeType
	if name == "" {
		name = "Unknown node"
	}
	return Entry{
		Type:        nodeType,
		Name:        name,
		Description: "Unrecognized node type",
		Category:    FallbackCategory,
		Tags:        []string{},
		Icon:        "box",
	}
}
