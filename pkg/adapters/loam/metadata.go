package loam

// LayerMetadata is the frontmatter of a layer document.
// It uses "mapstructure" tags to match the YAML keys written by hand.
type LayerMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	DisplayName string `json:"display_name" mapstructure:"display_name"`

	// Specs is kept loosely typed so hand-edited documents with numeric or
	// nested attribute values decode without a schema.
	Specs map[string]any `json:"specs" mapstructure:"specs"`
}
