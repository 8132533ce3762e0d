// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// CountryNormalizer turns a country code or name into a validated ISO
// 3166-1 alpha-2 code. The resolution engine consumes this contract; it does
// not reimplement country validation itself.
type CountryNormalizer interface {
	// Normalize returns the alpha-2 code for an alpha-2/alpha-3 code or a
	// country name, or an InvalidCountry error.
	Normalize(codeOrName string) (string, error)
}

// RegionNormalizer normalizes countries through the CLDR region data shipped
// with golang.org/x/text: alpha-2 and alpha-3 codes are parsed directly,
// anything else is matched against English region display names.
type RegionNormalizer struct {
	once   sync.Once
	byName map[string]string
}

// NewRegionNormalizer builds a RegionNormalizer.
func NewRegionNormalizer() *RegionNormalizer {
	return &RegionNormalizer{}
}

// Normalize implements CountryNormalizer.
func (n *RegionNormalizer) Normalize(codeOrName string) (string, error) {
	input := strings.TrimSpace(codeOrName)
	if input == "" {
		return "", NewInvalidCountry(codeOrName)
	}

	if len(input) == 2 || len(input) == 3 {
		if region, err := language.ParseRegion(input); err == nil && region.IsCountry() {
			return region.String(), nil
		}
	}

	n.once.Do(n.buildNameIndex)

	if code, ok := n.byName[strings.ToLower(input)]; ok {
		return code, nil
	}

	return "", NewInvalidCountry(codeOrName)
}

// buildNameIndex maps lowercase English country names to alpha-2 codes by
// walking the alpha-2 code space.
func (n *RegionNormalizer) buildNameIndex() {
	n.byName = make(map[string]string, 256)
	namer := display.English.Regions()

	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			region, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !region.IsCountry() {
				continue
			}

			code := region.String()
			if len(code) != 2 {
				continue
			}

			if name := namer.Name(region); name != "" {
				n.byName[strings.ToLower(name)] = code
			}
		}
	}
}
