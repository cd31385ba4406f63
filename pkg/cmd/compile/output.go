// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/compiler"
	"carvel.dev/qrpm/pkg/orderedmap"
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	OutputTypeYAML = "yaml"
	OutputTypeJSON = "json"
	OutputTypeTOML = "toml"
	OutputTypeText = "text"
)

var outputTypes = []string{OutputTypeYAML, OutputTypeJSON, OutputTypeTOML, OutputTypeText}

type OutputFlags struct {
	Type string
	File string
}

func (s *OutputFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.Type, "output", "o", OutputTypeYAML, "Output type ("+strings.Join(outputTypes, ", ")+")")
	cmd.Flags().StringVar(&s.File, "output-file", "", "Write output to file instead of stdout")
}

// Output is the printable form of a compilation result.
type Output struct {
	Values *orderedmap.StringMap
	Files  []*orderedmap.StringMap
}

func NewOutput(res *compiler.Result) (Output, error) {
	values, err := res.Dict.Nested()
	if err != nil {
		return Output{}, err
	}

	out := Output{Values: values}
	for _, file := range res.Files {
		out.Files = append(out.Files, fileOutput(file))
	}
	return out, nil
}

func fileOutput(file *ast.File) *orderedmap.StringMap {
	result := orderedmap.NewMap()
	switch {
	case file.IsSymlink():
		result.Set(ast.AttrSymlink, file.SrcPath())
	case file.IsReflink():
		result.Set(ast.AttrReflink, file.SrcPath())
	default:
		result.Set(ast.AttrFile, file.SrcPath())
	}
	result.Set("dst", file.DstPath())
	if perm := file.Perm(); len(perm) > 0 {
		result.Set(ast.AttrPerm, perm)
	}
	return result
}

func (o Output) asMap() *orderedmap.StringMap {
	result := orderedmap.NewMap()
	result.Set("values", o.Values)
	var files []interface{}
	for _, file := range o.Files {
		files = append(files, file)
	}
	if len(files) > 0 {
		result.Set("files", files)
	}
	return result
}

// Bytes renders the output in the given type.
func (o Output) Bytes(outputType string) ([]byte, error) {
	switch outputType {
	case OutputTypeYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err := enc.Encode(yamlNode(o.asMap()))
		if err != nil {
			return nil, err
		}
		err = enc.Close()
		return buf.Bytes(), err

	case OutputTypeJSON:
		bs, err := json.MarshalIndent(orderedmap.Conversion{Object: o.asMap()}.AsUnorderedStringMaps(), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(bs, '\n'), nil

	case OutputTypeTOML:
		var buf bytes.Buffer
		err := toml.NewEncoder(&buf).Encode(orderedmap.Conversion{Object: o.asMap()}.AsUnorderedStringMaps())
		return buf.Bytes(), err

	case OutputTypeText:
		return o.text(), nil

	default:
		return nil, fmt.Errorf("Unknown output type '%s' (expected one of: %s)", outputType, strings.Join(outputTypes, ", "))
	}
}

func (o Output) text() []byte {
	var buf bytes.Buffer
	var writeValues func(prefix string, vals *orderedmap.StringMap)
	writeValues = func(prefix string, vals *orderedmap.StringMap) {
		vals.Iterate(func(key string, val interface{}) {
			switch typedVal := val.(type) {
			case *orderedmap.StringMap:
				writeValues(prefix+key+".", typedVal)
			case []interface{}:
				bs, _ := json.Marshal(orderedmap.Conversion{Object: typedVal}.AsUnorderedStringMaps())
				fmt.Fprintf(&buf, "%s%s=%s\n", prefix, key, bs)
			default:
				fmt.Fprintf(&buf, "%s%s=%v\n", prefix, key, typedVal)
			}
		})
	}
	writeValues("", o.Values)

	for _, file := range o.Files {
		var pieces []string
		for _, key := range file.Keys() {
			val, _ := file.Get(key)
			pieces = append(pieces, fmt.Sprintf("%s=%s", key, val))
		}
		fmt.Fprintf(&buf, "%s\n", strings.Join(pieces, " "))
	}
	return buf.Bytes()
}

// yamlNode builds a node tree so that key order is kept.
func yamlNode(val interface{}) *yaml.Node {
	switch typedVal := val.(type) {
	case *orderedmap.StringMap:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		typedVal.Iterate(func(k string, v interface{}) {
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, yamlNode(v))
		})
		return node

	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range typedVal {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node

	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: typedVal}

	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}

	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%v", typedVal)}
	}
}
