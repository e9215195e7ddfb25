package frontmatter

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Metadata is the descriptive subset of a frontmatter block shown by `vaultpub list`.
// It plays no part in deciding eligibility.
type Metadata struct {
	Title string         `yaml:"title"`
	Tags  Tags           `yaml:"tags"`
	Extra map[string]any `yaml:",inline"`
}

// Tags accepts both a YAML list and a single scalar such as `tags: a, b`.
type Tags []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tags) UnmarshalYAML(node *yaml.Node) error {
	var tags Tags
	switch node.Kind {
	case yaml.ScalarNode:
		tags = splitTags(node.Value)
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: tag must be a scalar", item.Line)
			}
			tags = append(tags, splitTags(item.Value)...)
		}
	default:
		return fmt.Errorf("line %d: tags must be a list or a string", node.Line)
	}
	*t = tags
	return nil
}

func splitTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
}

var yamlFormat = frontmatter.NewFormat(Delimiter, Delimiter, yaml.Unmarshal)

// ParseMetadata decodes the leading block as YAML. Documents without a block
// yield an empty Metadata and no error.
func ParseMetadata(text string) (Metadata, error) {
	var meta Metadata
	if _, ok := Find(text); !ok {
		return meta, nil
	}
	if _, err := frontmatter.Parse(strings.NewReader(text), &meta, yamlFormat); err != nil {
		return Metadata{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, nil
}
