// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package gazetteer implements the place-name resolution engine: a common
// query contract for gazetteer sources, a normalized candidate schema,
// fuzzy name scoring and best-match selection.
package gazetteer

import (
	"strings"

	"github.com/jcodagnone/georesolver/spatial"
)

// Source identifies one of the supported gazetteer data sources.
type Source string

const (
	// SourceTGN is the Getty Thesaurus of Geographic Names (SPARQL).
	SourceTGN Source = "tgn"
	// SourceWHG is the World Historical Gazetteer.
	SourceWHG Source = "whg"
	// SourceGeonames is the Geonames gazetteer.
	SourceGeonames Source = "geonames"
	// SourceWikidata is the Wikidata knowledge graph.
	SourceWikidata Source = "wikidata"
)

// Sources lists all supported sources in the default priority order.
var Sources = []Source{SourceTGN, SourceWHG, SourceGeonames, SourceWikidata}

// ParseSource converts a string into a Source.
func ParseSource(s string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceTGN:
		return SourceTGN, true
	case SourceWHG:
		return SourceWHG, true
	case SourceGeonames:
		return SourceGeonames, true
	case SourceWikidata:
		return SourceWikidata, true
	}

	return "", false
}

// AltName is an alternate name for a place, optionally language-tagged.
type AltName struct {
	Name string `json:"name"`
	Lang string `json:"lang,omitempty"`
}

// ParentRef references a containing place. Chains are ordered from the
// immediate container outward.
type ParentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Candidate is the normalized record every source adapter produces. It is
// constructed once per source hit and never mutated afterwards; the engine
// only filters, scores and possibly discards it.
type Candidate struct {
	Source      Source         `json:"source"`
	ID          string         `json:"id"` // source-native identifier or URI
	Name        string         `json:"name"`
	NameLang    string         `json:"name_lang,omitempty"`
	AltNames    []AltName      `json:"alt_names,omitempty"`
	Point       *spatial.Point `json:"point,omitempty"`
	PlaceType   string         `json:"place_type"`            // shared vocabulary, "unknown" if unmapped
	NativeType  string         `json:"native_type,omitempty"` // as reported by the source
	CountryCode string         `json:"country_code,omitempty"`
	PartOf      []ParentRef    `json:"part_of,omitempty"`
}

// NewCandidate builds a normalized Candidate. The canonical name is trimmed,
// coordinates outside the valid latitude/longitude ranges are dropped rather
// than passed downstream, and alternate names that duplicate the canonical
// name are removed. Returns false when the record is unusable (blank name or
// missing source).
func NewCandidate(c Candidate) (Candidate, bool) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" || c.Source == "" {
		return Candidate{}, false
	}

	if c.Point != nil && !c.Point.Valid() {
		c.Point = nil
	}

	if c.PlaceType == "" {
		c.PlaceType = PlaceTypeUnknown
	}

	c.CountryCode = strings.ToUpper(strings.TrimSpace(c.CountryCode))

	if len(c.AltNames) > 0 {
		alts := make([]AltName, 0, len(c.AltNames))
		seen := map[string]bool{strings.ToLower(c.Name): true}

		for _, alt := range c.AltNames {
			name := strings.TrimSpace(alt.Name)
			if name == "" || seen[strings.ToLower(name)] {
				continue
			}

			seen[strings.ToLower(name)] = true

			alts = append(alts, AltName{Name: name, Lang: alt.Lang})
		}

		c.AltNames = alts
	}

	return c, true
}

// Names returns the canonical name followed by all alternate names.
func (c *Candidate) Names() []string {
	names := make([]string, 0, 1+len(c.AltNames))
	names = append(names, c.Name)

	for _, alt := range c.AltNames {
		names = append(names, alt.Name)
	}

	return names
}

// HasCoordinates reports whether the candidate carries a coordinate pair.
func (c *Candidate) HasCoordinates() bool {
	return c.Point != nil
}

// HasNameInLanguage reports whether any of the candidate's names is tagged
// with the given language.
func (c *Candidate) HasNameInLanguage(lang string) bool {
	if lang == "" {
		return false
	}

	if strings.EqualFold(c.NameLang, lang) {
		return true
	}

	for _, alt := range c.AltNames {
		if strings.EqualFold(alt.Lang, lang) {
			return true
		}
	}

	return false
}
