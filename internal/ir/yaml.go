package ir

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// YAML tags for the kinds plain YAML cannot express.
const (
	TagUndefined = "!undefined"
	TagFunc      = "!func"
)

// maxYAMLNodes bounds how many values one document may expand to once
// aliases are followed.
const maxYAMLNodes = 1 << 20

// ErrRecursiveAlias is returned by FromYAML when an alias refers to a
// node that contains it.
var ErrRecursiveAlias = errors.New("recursive yaml alias")

// ErrTooLarge is returned by FromYAML when alias expansion exceeds
// maxYAMLNodes.
var ErrTooLarge = errors.New("yaml document expands to too many values")

// FromYAML parses a YAML document into a Value. Mapping order is kept,
// which is what makes YAML the input format of choice here: the order of
// keys decides the encoded key order. Scalars tagged !undefined and !func
// become Undefined and Func. An empty document is Undefined.
func FromYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Undefined{}, nil
	}
	d := &nodeDecoder{expanding: map[*yaml.Node]bool{}}
	return d.fromNode(doc.Content[0])
}

// nodeDecoder tracks alias targets being expanded, so a cycle is an
// error instead of unbounded recursion.
type nodeDecoder struct {
	expanding map[*yaml.Node]bool
	nodes     int
}

func (d *nodeDecoder) fromNode(n *yaml.Node) (Value, error) {
	d.nodes++
	if d.nodes > maxYAMLNodes {
		return nil, ErrTooLarge
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Undefined{}, nil
		}
		return d.fromNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unknown alias %q", n.Line, n.Value)
		}
		if d.expanding[n.Alias] {
			return nil, fmt.Errorf("line %d: *%s: %w", n.Line, n.Value, ErrRecursiveAlias)
		}
		d.expanding[n.Alias] = true
		defer delete(d.expanding, n.Alias)
		return d.fromNode(n.Alias)
	case yaml.SequenceNode:
		arr := make(Array, len(n.Content))
		for i, item := range n.Content {
			v, err := d.fromNode(item)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.MappingNode:
		obj := &Object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := d.fromNode(n.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", key, err)
			}
			obj.Set(key, v)
		}
		return obj, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.Tag {
	case TagUndefined:
		return Undefined{}, nil
	case TagFunc:
		return Func{Source: n.Value}, nil
	}

	switch n.ShortTag() {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Number(f), nil
	default:
		return String(n.Value), nil
	}
}

// ToYAML renders v as a YAML document, the inverse of FromYAML.
func ToYAML(v Value) ([]byte, error) {
	n, err := toNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func toNode(v Value) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil, Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: "null"}, nil
	case Undefined:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagUndefined, Value: ""}, nil
	case Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: val.Text()}, nil
	case Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: yamlNumber(float64(val))}, nil
	case String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}, nil
	case Func:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagFunc, Value: val.Source}, nil
	case Array:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for i, elem := range val {
			child, err := toNode(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case *Object:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range val.Keys() {
			elem, _ := val.Get(k)
			child, err := toNode(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				child)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func yamlNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return FormatNumber(f)
}
