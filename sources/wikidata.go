// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/jcodagnone/georesolver/spatial"
)

// Wikidata resolves place names through the MediaWiki entity search plus a
// per-entity data lookup. Search alone returns bare labels; coordinates
// (P625), country (P17) and type (P31) live in the entity documents.
type Wikidata struct {
	searchEndpoint string
	entityEndpoint string
	client         *http.Client
	types          *gazetteer.PlaceTypeMapper
}

// NewWikidata builds the Wikidata adapter.
func NewWikidata(searchEndpoint, entityEndpoint string, client *http.Client, types *gazetteer.PlaceTypeMapper) *Wikidata {
	return &Wikidata{
		searchEndpoint: searchEndpoint,
		entityEndpoint: strings.TrimRight(entityEndpoint, "/") + "/",
		client:         client,
		types:          types,
	}
}

// Source implements gazetteer.Adapter.
func (w *Wikidata) Source() gazetteer.Source {
	return gazetteer.SourceWikidata
}

// SupportsNativeCountryFilter implements gazetteer.Adapter. Entity search
// has no country parameter; the country emerges from each entity's P17
// claim, so filtering is left to the engine.
func (w *Wikidata) SupportsNativeCountryFilter() bool {
	return false
}

type wikidataSearchResponse struct {
	Search []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"search"`
}

type wikidataClaim struct {
	Mainsnak struct {
		Datavalue struct {
			Value struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
				ID        string  `json:"id"`
			} `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

// P297 stores the ISO code as a plain string datavalue, so it needs its own
// shape next to the object-valued claims.
type wikidataISOClaim struct {
	Mainsnak struct {
		Datavalue struct {
			Value string `json:"value"`
		} `json:"datavalue"`
	} `json:"mainsnak"`
}

type wikidataEntity struct {
	Labels map[string]struct {
		Value string `json:"value"`
	} `json:"labels"`
	Aliases map[string][]struct {
		Value string `json:"value"`
	} `json:"aliases"`
	Claims struct {
		Coordinates []wikidataClaim    `json:"P625"`
		Country     []wikidataClaim    `json:"P17"`
		InstanceOf  []wikidataClaim    `json:"P31"`
		ISOAlpha2   []wikidataISOClaim `json:"P297"`
	} `json:"claims"`
}

type wikidataEntityResponse struct {
	Entities map[string]wikidataEntity `json:"entities"`
}

// QueryPlaceName implements gazetteer.Adapter. Entities without coordinates
// are skipped: entity search matches people, works and concepts as readily
// as places, and the coordinate claim is what tells them apart.
func (w *Wikidata) QueryPlaceName(ctx context.Context, name, countryCode, language, _ string) ([]gazetteer.Candidate, error) {
	if err := gazetteer.ValidateQueryParams(name, countryCode); err != nil {
		return nil, err
	}

	searchLang := language
	if searchLang == "" {
		searchLang = "en"
	}

	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("search", strings.TrimSpace(name))
	params.Set("language", searchLang)
	params.Set("format", "json")
	params.Set("type", "item")
	params.Set("limit", "10")

	var search wikidataSearchResponse
	if err := fetchJSON(ctx, w.client, w.Source(), w.searchEndpoint+"?"+params.Encode(), "application/json", &search); err != nil {
		return nil, err
	}

	candidates := make([]gazetteer.Candidate, 0, len(search.Search))
	// Country entities repeat across results; memoize their ISO codes for
	// the duration of this call.
	isoMemo := make(map[string]string)

	for _, hit := range search.Search {
		entity, err := w.fetchEntity(ctx, hit.ID)
		if err != nil {
			// One opaque entity should not sink the whole result
			// list; the search hit simply contributes nothing.
			continue
		}

		if len(entity.Claims.Coordinates) == 0 {
			continue
		}

		value := entity.Claims.Coordinates[0].Mainsnak.Datavalue.Value
		point := &spatial.Point{Lat: value.Latitude, Lng: value.Longitude}

		candidate, ok := gazetteer.NewCandidate(gazetteer.Candidate{
			Source:      w.Source(),
			ID:          hit.ID,
			Name:        hit.Label,
			NameLang:    searchLang,
			AltNames:    w.altNames(entity, searchLang),
			Point:       point,
			PlaceType:   w.normalizeType(entity),
			NativeType:  w.nativeType(entity),
			CountryCode: w.countryCode(ctx, entity, isoMemo),
		})
		if !ok {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (w *Wikidata) fetchEntity(ctx context.Context, qid string) (*wikidataEntity, error) {
	var resp wikidataEntityResponse
	if err := fetchJSON(ctx, w.client, w.Source(), w.entityEndpoint+qid+".json", "application/json", &resp); err != nil {
		return nil, err
	}

	entity, ok := resp.Entities[qid]
	if !ok {
		return nil, gazetteer.NewTransport("entity "+qid+" missing from its own document", nil)
	}

	return &entity, nil
}

// altNames collects the entity's aliases in the search language and English,
// plus the English label when it differs from the search label.
func (w *Wikidata) altNames(entity *wikidataEntity, searchLang string) []gazetteer.AltName {
	var alts []gazetteer.AltName

	langs := []string{searchLang}
	if searchLang != "en" {
		langs = append(langs, "en")
	}

	for _, lang := range langs {
		if label, ok := entity.Labels[lang]; ok {
			alts = append(alts, gazetteer.AltName{Name: label.Value, Lang: lang})
		}

		for _, alias := range entity.Aliases[lang] {
			alts = append(alts, gazetteer.AltName{Name: alias.Value, Lang: lang})
		}
	}

	return alts
}

// nativeType is the first P31 class that maps into the shared vocabulary,
// falling back to the first class.
func (w *Wikidata) nativeType(entity *wikidataEntity) string {
	fallback := ""

	for i, claim := range entity.Claims.InstanceOf {
		qid := claim.Mainsnak.Datavalue.Value.ID
		if i == 0 {
			fallback = qid
		}

		if w.types.Normalize(w.Source(), qid) != gazetteer.PlaceTypeUnknown {
			return qid
		}
	}

	return fallback
}

func (w *Wikidata) normalizeType(entity *wikidataEntity) string {
	return w.types.Normalize(w.Source(), w.nativeType(entity))
}

// countryCode resolves the entity's P17 country claim to an alpha-2 code by
// reading the country entity's P297 claim. Failures leave the candidate
// without a country; the engine's filter treats that as a mismatch when a
// country constraint is active.
func (w *Wikidata) countryCode(ctx context.Context, entity *wikidataEntity, memo map[string]string) string {
	if len(entity.Claims.Country) == 0 {
		return ""
	}

	countryQID := entity.Claims.Country[0].Mainsnak.Datavalue.Value.ID
	if countryQID == "" {
		return ""
	}

	if code, ok := memo[countryQID]; ok {
		return code
	}

	code := ""

	if country, err := w.fetchEntity(ctx, countryQID); err == nil && len(country.Claims.ISOAlpha2) > 0 {
		code = strings.ToUpper(country.Claims.ISOAlpha2[0].Mainsnak.Datavalue.Value)
	}

	memo[countryQID] = code

	return code
}
