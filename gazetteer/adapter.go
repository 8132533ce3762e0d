// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"strings"
)

// Adapter is the contract every gazetteer source wraps itself in. An adapter
// translates its source's native schema into Candidates; source-native shapes
// never leak past it.
type Adapter interface {
	// Source identifies the wrapped data source.
	Source() Source

	// QueryPlaceName searches the source for a place name. The country
	// code, when given, must already be a validated alpha-2 code; the
	// language and place-type hint are best-effort. The returned slice is
	// in the source's native relevance order and may be empty; an empty
	// result is not an error. Errors are raised only for parameter
	// validation, transport failures and malformed source payloads.
	QueryPlaceName(ctx context.Context, name, countryCode, language, placeType string) ([]Candidate, error)

	// SupportsNativeCountryFilter reports whether the source reliably
	// filters by country itself. When false the engine re-filters the
	// results it already requested filtered.
	SupportsNativeCountryFilter() bool
}

// CoordinateFinder is implemented by adapters whose search results carry no
// inline coordinates and need a follow-up lookup. The engine calls it only
// for a winning candidate that lacks coordinates.
type CoordinateFinder interface {
	FindCoordinates(ctx context.Context, c *Candidate) (lat, lng float64, err error)
}

// ValidateQueryParams performs the fail-fast parameter checks shared by all
// adapters: a non-blank name and, when present, a two-letter country code.
func ValidateQueryParams(name, countryCode string) error {
	if strings.TrimSpace(name) == "" {
		return NewInvalidParameter("place name must not be blank")
	}

	if countryCode != "" && (len(countryCode) != 2 || countryCode != strings.ToUpper(countryCode)) {
		return NewInvalidParameter("country code %q is not a validated alpha-2 code", countryCode)
	}

	return nil
}
