// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"strings"

	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
)

// Dictionary is the flat resolved dictionary. Keys are paths (eg. "name" or
// "pkg.home"); values are strings, or slices for lists.
type Dictionary struct {
	values *orderedmap.StringMap
}

var _ fragment.Dictionary = &Dictionary{}

func NewDictionary() *Dictionary {
	return &Dictionary{values: orderedmap.NewMap()}
}

func (d *Dictionary) Set(path string, val interface{}) { d.values.Set(path, val) }

func (d *Dictionary) Get(path string) (interface{}, bool) { return d.values.Get(path) }

func (d *Dictionary) Has(path string) bool { return d.values.Has(path) }

func (d *Dictionary) Keys() []string { return d.values.Keys() }

func (d *Dictionary) Len() int { return d.values.Len() }

// Lookup implements fragment.Dictionary. Only strings can be referenced.
func (d *Dictionary) Lookup(name string) (string, bool) {
	val, found := d.values.Get(name)
	if !found {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// String returns the value of path when it is a string.
func (d *Dictionary) String(path string) string {
	str, _ := d.Lookup(path)
	return str
}

// Strings returns the value of path as a list. A string value becomes a
// list of one.
func (d *Dictionary) Strings(path string) []string {
	val, found := d.values.Get(path)
	if !found {
		return nil
	}
	switch typedVal := val.(type) {
	case string:
		return []string{typedVal}
	case []interface{}:
		var result []string
		for _, item := range typedVal {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Flat returns the dictionary keyed by paths.
func (d *Dictionary) Flat() *orderedmap.StringMap {
	result := orderedmap.NewMap()
	d.values.Iterate(func(k string, v interface{}) { result.Set(k, v) })
	return result
}

// Nested returns the dictionary with dotted paths turned into nested maps
// (eg. "pkg.home" becomes pkg: {home: ...}).
func (d *Dictionary) Nested() (*orderedmap.StringMap, error) {
	result := orderedmap.NewMap()
	err := d.values.IterateErr(func(key string, val interface{}) error {
		keyPieces := strings.Split(key, ".")
		currMap := result
		for _, keyPiece := range keyPieces[:len(keyPieces)-1] {
			subMap, found := currMap.Get(keyPiece)
			if found {
				if typedSubMap, ok := subMap.(*orderedmap.StringMap); ok {
					currMap = typedSubMap
				} else {
					return fmt.Errorf("Expected key '%s' to not conflict with other values at piece '%s'", key, keyPiece)
				}
			} else {
				newCurrMap := orderedmap.NewMap()
				currMap.Set(keyPiece, newCurrMap)
				currMap = newCurrMap
			}
		}
		lastPiece := keyPieces[len(keyPieces)-1]
		if existing, found := currMap.Get(lastPiece); found {
			if _, ok := existing.(*orderedmap.StringMap); ok {
				return fmt.Errorf("Expected key '%s' to not conflict with other values", key)
			}
		}
		currMap.Set(lastPiece, val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
