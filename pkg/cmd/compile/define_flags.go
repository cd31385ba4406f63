// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"carvel.dev/qrpm/pkg/files"
	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefineFlags collect values that override values of the description.
type DefineFlags struct {
	EnvFromStrings []string

	KVsFromStrings []string
	KVsFromYAML    []string
	KVsFromFiles   []string

	FromFiles []string
}

func (s *DefineFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&s.EnvFromStrings, "define-env", nil, "Extract values (as strings) from prefixed env vars (format: PREFIX for PREFIX_pkg__home=/opt) (can be specified multiple times)")

	cmd.Flags().StringArrayVarP(&s.KVsFromStrings, "define", "D", nil, "Set value, as string (format: pkg.home=/opt) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.KVsFromYAML, "define-yaml", nil, "Set value, parsed as YAML scalar (format: release=2) (can be specified multiple times)")
	cmd.Flags().StringArrayVar(&s.KVsFromFiles, "define-file", nil, "Set value to given file contents, as string (format: description=/file/path) (can be specified multiple times)")

	cmd.Flags().StringArrayVar(&s.FromFiles, "defines", nil, "Set values from a YAML or TOML file (nested maps define dotted names) (can be specified multiple times)")
}

type defineFlagsSource struct {
	Values        []string
	TransformFunc func(string) (interface{}, error)
}

// Values returns the defined values keyed by dotted names. Later flags
// override earlier ones; flags override environment variables and files.
func (s *DefineFlags) Values(fs afero.Fs) (*orderedmap.StringMap, error) {
	plainValFunc := func(rawVal string) (interface{}, error) { return rawVal, nil }

	yamlValFunc := func(rawVal string) (interface{}, error) {
		var val interface{}
		err := yaml.Unmarshal([]byte(rawVal), &val)
		if err != nil {
			return nil, fmt.Errorf("Deserializing YAML value: %s", err)
		}
		return val, nil
	}

	var result []*orderedmap.StringMap

	for _, path := range s.FromFiles {
		vals, err := s.valuesFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("Extracting values from file '%s': %s", path, err)
		}
		result = append(result, vals)
	}

	for _, envPrefix := range s.EnvFromStrings {
		vals, err := s.env(envPrefix, plainValFunc)
		if err != nil {
			return nil, fmt.Errorf("Extracting values from env under prefix '%s': %s", envPrefix, err)
		}
		result = append(result, vals)
	}

	for _, src := range []defineFlagsSource{{s.KVsFromStrings, plainValFunc}, {s.KVsFromYAML, yamlValFunc}} {
		for _, kv := range src.Values {
			vals, err := s.kv(kv, src.TransformFunc)
			if err != nil {
				return nil, fmt.Errorf("Extracting value from KV: %s", err)
			}
			result = append(result, vals)
		}
	}

	for _, file := range s.KVsFromFiles {
		vals, err := s.file(fs, file)
		if err != nil {
			return nil, fmt.Errorf("Extracting value from file: %s", err)
		}
		result = append(result, vals)
	}

	return s.merge(result)
}

func (s *DefineFlags) env(prefix string, valueFunc func(string) (interface{}, error)) (*orderedmap.StringMap, error) {
	result := orderedmap.NewMap()

	for _, envVar := range os.Environ() {
		pieces := strings.SplitN(envVar, "=", 2)
		if len(pieces) != 2 {
			return nil, fmt.Errorf("Expected env variable to be key-value pair (format: key=value)")
		}

		if !strings.HasPrefix(pieces[0], prefix+"_") {
			continue
		}

		val, err := valueFunc(pieces[1])
		if err != nil {
			return nil, fmt.Errorf("Extracting value from env variable '%s': %s", pieces[0], err)
		}

		// '__' gets translated into a '.' since periods may not be liked by shells
		result.Set(strings.Replace(strings.TrimPrefix(pieces[0], prefix+"_"), "__", ".", -1), val)
	}

	return result, nil
}

func (s *DefineFlags) kv(kv string, valueFunc func(string) (interface{}, error)) (*orderedmap.StringMap, error) {
	result := orderedmap.NewMap()

	pieces := strings.SplitN(kv, "=", 2)
	if len(pieces) != 2 {
		return nil, fmt.Errorf("Expected format key=value")
	}

	val, err := valueFunc(pieces[1])
	if err != nil {
		return nil, fmt.Errorf("Deserializing value for key '%s': %s", pieces[0], err)
	}

	result.Set(pieces[0], val)

	return result, nil
}

func (s *DefineFlags) file(fs afero.Fs, kv string) (*orderedmap.StringMap, error) {
	result := orderedmap.NewMap()

	pieces := strings.SplitN(kv, "=", 2)
	if len(pieces) != 2 {
		return nil, fmt.Errorf("Expected format key=/file/path")
	}

	contents, err := files.NewSource(fs, pieces[1]).Bytes()
	if err != nil {
		return nil, fmt.Errorf("Reading file '%s': %s", pieces[1], err)
	}

	result.Set(pieces[0], string(contents))

	return result, nil
}

// valuesFile reads a YAML or (by extension) TOML file of values.
func (s *DefineFlags) valuesFile(fs afero.Fs, path string) (*orderedmap.StringMap, error) {
	contents, err := files.NewSource(fs, path).Bytes()
	if err != nil {
		return nil, err
	}

	var vals interface{}
	switch filepath.Ext(path) {
	case ".toml":
		err = toml.Unmarshal(contents, &vals)
	default:
		err = yaml.Unmarshal(contents, &vals)
	}
	if err != nil {
		return nil, err
	}
	if vals == nil {
		return orderedmap.NewMap(), nil
	}

	nested, ok := orderedmap.Conversion{Object: vals}.FromUnorderedMaps().(*orderedmap.StringMap)
	if !ok {
		return nil, fmt.Errorf("Expected a map of values but was %T", vals)
	}

	result := orderedmap.NewMap()
	return result, s.flatten(result, "", nested)
}

func (s *DefineFlags) flatten(result *orderedmap.StringMap, prefix string, vals *orderedmap.StringMap) error {
	return vals.IterateErr(func(key string, val interface{}) error {
		if len(prefix) > 0 {
			key = prefix + "." + key
		}
		if nested, ok := val.(*orderedmap.StringMap); ok {
			return s.flatten(result, key, nested)
		}
		result.Set(key, val)
		return nil
	})
}

// merge flattens multiple sources into one. Values must be scalars and
// names must be plain (possibly dotted) names.
func (s *DefineFlags) merge(multipleVals []*orderedmap.StringMap) (*orderedmap.StringMap, error) {
	result := orderedmap.NewMap()
	for _, vals := range multipleVals {
		err := vals.IterateErr(func(key string, val interface{}) error {
			if !fragment.IsPath(key) {
				return fmt.Errorf("Expected '%s' to be a name such as 'pkg.home'", key)
			}
			switch val.(type) {
			case nil, string, bool, int, int64, uint64, float64:
			default:
				return fmt.Errorf("Expected value of '%s' to be a string, number, boolean or null, but was %T", key, val)
			}
			result.Delete(key)
			result.Set(key, val)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
