// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"sort"
	"strings"
)

// ContextFilter narrows a merged candidate list by the caller-supplied
// country, place type and language. Filtering never produces an error: an
// empty slice out of a non-empty slice is a legitimate no-match.
type ContextFilter struct {
	// CountryCode is a validated alpha-2 code; empty means no constraint.
	CountryCode string

	// PlaceType is a shared-vocabulary term; empty means no constraint.
	// Candidates whose type is unknown always pass.
	PlaceType string

	// Language is advisory: candidates with a name in this language are
	// preferred (moved ahead of the rest) but never excluded.
	Language string
}

// Apply filters candidates in place-order. nativeFilter reports whether a
// candidate's source already filtered by country on the engine's behalf; a
// candidate without a country code of its own passes the country check only
// on that guarantee.
func (f *ContextFilter) Apply(candidates []Candidate, nativeFilter func(Source) bool) []Candidate {
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if !f.matchCountry(&c, nativeFilter) {
			continue
		}

		if !f.matchPlaceType(&c) {
			continue
		}

		out = append(out, c)
	}

	if f.Language != "" {
		// Stable partition: language-tagged candidates first, original
		// order preserved within each group.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].HasNameInLanguage(f.Language) && !out[j].HasNameInLanguage(f.Language)
		})
	}

	return out
}

// The country check is a hard post-filter: some sources' own country filters
// are unreliable or incomplete, so a declared mismatch always eliminates.
func (f *ContextFilter) matchCountry(c *Candidate, nativeFilter func(Source) bool) bool {
	if f.CountryCode == "" {
		return true
	}

	if c.CountryCode != "" {
		return strings.EqualFold(c.CountryCode, f.CountryCode)
	}

	return nativeFilter != nil && nativeFilter(c.Source)
}

func (f *ContextFilter) matchPlaceType(c *Candidate) bool {
	if f.PlaceType == "" || c.PlaceType == PlaceTypeUnknown {
		return true
	}

	return strings.EqualFold(c.PlaceType, f.PlaceType)
}
