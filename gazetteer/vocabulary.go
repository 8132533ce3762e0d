// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// PlaceTypeUnknown is the shared-vocabulary term for native place types
// without a mapping. Unknown types are never a reason to fail a resolution.
const PlaceTypeUnknown = "unknown"

// PlaceTypeMapper translates between the shared place-type vocabulary and
// each source's native type strings or URIs. The mapping is a static data
// asset; see data/places_map.json.
type PlaceTypeMapper struct {
	// shared term -> source -> native type
	mapping map[string]map[Source]string
	// source -> native type (lowercased) -> shared term
	reverse map[Source]map[string]string
}

// NewPlaceTypeMapper builds a mapper from an in-memory table.
func NewPlaceTypeMapper(mapping map[string]map[Source]string) *PlaceTypeMapper {
	m := &PlaceTypeMapper{
		mapping: make(map[string]map[Source]string, len(mapping)),
		reverse: make(map[Source]map[string]string),
	}

	// Shared terms are registered in lexical order so reverse lookups stay
	// deterministic when two terms share a native type.
	terms := make([]string, 0, len(mapping))
	for shared := range mapping {
		terms = append(terms, shared)
	}

	sort.Strings(terms)

	for _, rawShared := range terms {
		bySource := mapping[rawShared]
		shared := strings.ToLower(strings.TrimSpace(rawShared))
		m.mapping[shared] = bySource

		for src, native := range bySource {
			if m.reverse[src] == nil {
				m.reverse[src] = make(map[string]string)
			}

			key := strings.ToLower(native)
			// First registration wins.
			if _, ok := m.reverse[src][key]; !ok {
				m.reverse[src][key] = shared
			}
		}
	}

	return m
}

// LoadPlaceTypeMap reads the mapping table from a JSON file of the form
// {"shared term": {"tgn": "...", "whg": "...", ...}}.
func LoadPlaceTypeMap(path string) (*PlaceTypeMapper, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading place-type map: %w", err)
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing place-type map %s: %w", path, err)
	}

	mapping := make(map[string]map[Source]string, len(raw))

	for shared, bySource := range raw {
		mapping[shared] = make(map[Source]string, len(bySource))

		for srcName, native := range bySource {
			src, ok := ParseSource(srcName)
			if !ok {
				return nil, fmt.Errorf("place-type map %s: unknown source %q under %q", path, srcName, shared)
			}

			mapping[shared][src] = native
		}
	}

	return NewPlaceTypeMapper(mapping), nil
}

// ForSource returns the native type a source expects for a shared term.
// A missing mapping means the source cannot filter on this type.
func (m *PlaceTypeMapper) ForSource(sharedType string, src Source) (string, bool) {
	bySource, ok := m.mapping[strings.ToLower(strings.TrimSpace(sharedType))]
	if !ok {
		return "", false
	}

	native, ok := bySource[src]

	return native, ok
}

// Normalize maps a source-native type back into the shared vocabulary,
// returning PlaceTypeUnknown for anything unmapped.
func (m *PlaceTypeMapper) Normalize(src Source, nativeType string) string {
	nativeType = strings.TrimSpace(nativeType)
	if nativeType == "" {
		return PlaceTypeUnknown
	}

	if shared, ok := m.reverse[src][strings.ToLower(nativeType)]; ok {
		return shared
	}

	return PlaceTypeUnknown
}

// SharedTypes lists the shared vocabulary terms, for diagnostics.
func (m *PlaceTypeMapper) SharedTypes() []string {
	types := make([]string, 0, len(m.mapping))
	for shared := range m.mapping {
		types = append(types, shared)
	}

	return types
}
