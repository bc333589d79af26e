package expr

import (
	"fmt"

	"github.com/hupe1980/actionweave/core"
	"gopkg.in/yaml.v3"
)

// YAML keys for the two expression kinds.
const (
	yamlSelectOne   = "select_one"
	yamlRequireNext = "require_next"
)

// Decode converts a YAML node into an Element. Scalars are action names;
// single-key mappings `select_one: [...]` / `require_next: [...]` are
// expressions whose sequence items are decoded recursively:
//
//	select_one:
//	  - search
//	  - require_next: [fetch, parse]
//	  - translate
func Decode(node *yaml.Node) (Element, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: empty yaml node", core.ErrInvalidExpression)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return nil, fmt.Errorf("%w: empty yaml document", core.ErrInvalidExpression)
		}
		return Decode(node.Content[0])
	case yaml.AliasNode:
		return Decode(node.Alias)
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil, fmt.Errorf("%w: line %d: empty action name", core.ErrInvalidExpression, node.Line)
		}
		return Name(node.Value), nil
	case yaml.MappingNode:
		return decodeMapping(node)
	default:
		return nil, fmt.Errorf("%w: line %d: expected action name or %s/%s mapping",
			core.ErrInvalidExpression, node.Line, yamlSelectOne, yamlRequireNext)
	}
}

func decodeMapping(node *yaml.Node) (Element, error) {
	if len(node.Content) != 2 {
		return nil, fmt.Errorf("%w: line %d: expression mapping must have exactly one key", core.ErrInvalidExpression, node.Line)
	}

	key, value := node.Content[0].Value, node.Content[1]

	var kind Kind
	switch key {
	case yamlSelectOne:
		kind = KindSelectOne
	case yamlRequireNext:
		kind = KindRequireNext
	default:
		return nil, fmt.Errorf("%w: line %d: unknown expression %q", core.ErrInvalidExpression, node.Line, key)
	}

	if value.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: %s expects a list", core.ErrInvalidExpression, value.Line, key)
	}

	children := make([]Element, 0, len(value.Content))
	for _, item := range value.Content {
		child, err := Decode(item)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	e, err := New(kind, children...)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}

	return e, nil
}

// Spec is a yaml.Unmarshaler holder for an Element, for embedding in config structs.
type Spec struct {
	Element Element
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	e, err := Decode(value)
	if err != nil {
		return err
	}

	s.Element = e

	return nil
}

// Parse decodes an Element from YAML source.
func Parse(data []byte) (Element, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidExpression, err)
	}

	return Decode(&node)
}
