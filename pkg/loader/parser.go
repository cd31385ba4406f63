// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/filepos"
	"carvel.dev/qrpm/pkg/orderedmap"
	"gopkg.in/yaml.v3"
)

var (
	endMarker = regexp.MustCompile(`(?ms)^__END__.*`)

	// eg "yaml: line 2: found character that cannot start any token"
	lineErrRegexp = regexp.MustCompile(`^yaml: line (\d+): (.+)$`)
)

// StripEnd drops everything from the first line starting with __END__.
func StripEnd(data []byte) []byte {
	if loc := endMarker.FindIndex(data); loc != nil {
		return data[:loc[0]]
	}
	return data
}

type parser struct {
	name      string
	positions *filepos.Index
}

// ParseBytes decodes a single description file. Includes are not resolved.
func ParseBytes(data []byte, name string) (*Document, error) {
	doc := &Document{Values: orderedmap.NewMap(), Positions: filepos.NewIndex()}
	p := parser{name, doc.Positions}

	values, err := p.parse(data)
	if err != nil {
		return nil, err
	}
	doc.Values = values
	return doc, nil
}

func (p parser) parse(data []byte) (*orderedmap.StringMap, error) {
	var root yaml.Node

	err := yaml.Unmarshal(StripEnd(data), &root)
	if err != nil {
		return nil, p.wrapErr(err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return orderedmap.NewMap(), nil
		}
		node = node.Content[0]
	}
	node = resolveAlias(node)

	switch {
	case node.Kind == yaml.MappingNode:
		return p.mapping(node, "")
	case node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null"):
		return orderedmap.NewMap(), nil
	default:
		return nil, fmt.Errorf("Expected a mapping at the top of %s (%s)",
			p.name, p.position(node).AsCompactString())
	}
}

func (p parser) value(node *yaml.Node, path string) (interface{}, error) {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.MappingNode:
		return p.mapping(node, path)

	case yaml.SequenceNode:
		result := []interface{}{}
		for i, elem := range node.Content {
			elemPath := ast.IndexPath(path, i)
			p.positions.Set(elemPath, p.position(elem))

			val, err := p.value(elem, elemPath)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case yaml.ScalarNode:
		return p.scalar(node)

	default:
		return nil, fmt.Errorf("Unexpected YAML node kind %d (%s)", node.Kind, p.position(node).AsCompactString())
	}
}

func (p parser) mapping(node *yaml.Node, path string) (*orderedmap.StringMap, error) {
	result := orderedmap.NewMap()

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := resolveAlias(node.Content[i]), node.Content[i+1]

		if keyNode.Tag == "!!merge" {
			merged, err := p.value(valNode, path)
			if err != nil {
				return nil, err
			}
			mergedMap, ok := merged.(*orderedmap.StringMap)
			if !ok {
				return nil, fmt.Errorf("Expected merge value to be a mapping (%s)", p.position(valNode).AsCompactString())
			}
			mergedMap.Iterate(func(k string, v interface{}) { result.Set(k, v) })
			continue
		}

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("Expected map key to be a scalar (%s)", p.position(keyNode).AsCompactString())
		}

		keyPath := ast.ChildPath(path, keyNode.Value)
		p.positions.Set(keyPath, p.position(keyNode))

		val, err := p.value(valNode, keyPath)
		if err != nil {
			return nil, err
		}
		result.Set(keyNode.Value, val)
	}

	return result, nil
}

func (p parser) scalar(node *yaml.Node) (interface{}, error) {
	var val interface{}
	err := node.Decode(&val)
	if err != nil {
		return nil, fmt.Errorf("Decoding value (%s): %s", p.position(node).AsCompactString(), err)
	}

	switch typedVal := val.(type) {
	case nil, string, bool, int, float64:
		return typedVal, nil
	case int64:
		return int(typedVal), nil
	case uint64:
		return typedVal, nil
	default:
		// timestamps, binary and other exotic tags are kept as written
		return node.Value, nil
	}
}

func (p parser) position(node *yaml.Node) *filepos.Position {
	if node.Line == 0 {
		return filepos.NewUnknownPositionInFile(p.name)
	}
	return filepos.NewPositionInFile(node.Line, p.name).WithColumn(node.Column)
}

func (p parser) wrapErr(err error) error {
	msg := err.Error()
	if m := lineErrRegexp.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return fmt.Errorf("Unmarshaling YAML (%s): %s", filepos.NewPositionInFile(line, p.name).AsCompactString(), m[2])
	}
	return fmt.Errorf("Unmarshaling YAML in %s: %s", p.name, bytes.TrimSpace([]byte(msg)))
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
