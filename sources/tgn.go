// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/georesolver/gazetteer"
)

// TGN queries the Getty Thesaurus of Geographic Names SPARQL endpoint.
// Search hits carry no inline coordinates; those live in a per-place linked
// open data document, fetched on demand through FindCoordinates.
type TGN struct {
	endpoint string
	lang     string
	client   *http.Client
	types    *gazetteer.PlaceTypeMapper
}

// NewTGN builds the TGN adapter. lang selects the language of place-type
// labels in the SPARQL filter (the Getty vocabulary tags them per language).
func NewTGN(endpoint, lang string, client *http.Client, types *gazetteer.PlaceTypeMapper) *TGN {
	if lang == "" {
		lang = "en"
	}

	return &TGN{
		endpoint: strings.TrimRight(endpoint, "/"),
		lang:     lang,
		client:   client,
		types:    types,
	}
}

// Source implements gazetteer.Adapter.
func (t *TGN) Source() gazetteer.Source {
	return gazetteer.SourceTGN
}

// SupportsNativeCountryFilter implements gazetteer.Adapter. The country
// constraint is part of the SPARQL query itself (partitive containment), so
// results are already restricted to the requested country.
func (t *TGN) SupportsNativeCountryFilter() bool {
	return true
}

type sparqlBinding struct {
	Value string `json:"value"`
	Lang  string `json:"xml:lang"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlBinding `json:"bindings"`
	} `json:"results"`
}

// QueryPlaceName implements gazetteer.Adapter. When a country is given the
// query constrains matches through gvp:broaderPartitiveExtended on the
// country term; the containment pair doubles as the candidate's part_of
// chain.
func (t *TGN) QueryPlaceName(ctx context.Context, name, countryCode, _, placeType string) ([]gazetteer.Candidate, error) {
	if err := gazetteer.ValidateQueryParams(name, countryCode); err != nil {
		return nil, err
	}

	query := t.buildQuery(strings.TrimSpace(name), countryCode, placeType)

	var resp sparqlResponse

	endpoint := t.endpoint + "?query=" + url.QueryEscape(query)
	if err := fetchJSON(ctx, t.client, t.Source(), endpoint, "application/sparql-results+json", &resp); err != nil {
		return nil, err
	}

	candidates := make([]gazetteer.Candidate, 0, len(resp.Results.Bindings))
	seen := make(map[string]bool)

	for _, binding := range resp.Results.Bindings {
		uri := binding["p"].Value
		if uri == "" || seen[uri] {
			continue
		}

		seen[uri] = true

		var partOf []gazetteer.ParentRef
		if parent := binding["pp1"]; parent.Value != "" {
			partOf = []gazetteer.ParentRef{{ID: parent.Value, Name: binding["pp1Lab"].Value}}
		}

		candidate, ok := gazetteer.NewCandidate(gazetteer.Candidate{
			Source:   t.Source(),
			ID:       uri,
			Name:     binding["pLab"].Value,
			NameLang: binding["pLab"].Lang,
			PartOf:   partOf,
		})
		if !ok {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func (t *TGN) buildQuery(name, countryCode, placeType string) string {
	var sb strings.Builder

	sb.WriteString(`
PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
PREFIX luc: <http://www.ontotext.com/owlim/lucene#>
PREFIX gvp: <http://vocab.getty.edu/ontology#>
PREFIX xl: <http://www.w3.org/2008/05/skos-xl#>
PREFIX tgn: <http://vocab.getty.edu/tgn/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>

SELECT ?p ?pLab ?pp1 ?pp1Lab WHERE {
`)
	fmt.Fprintf(&sb, "  ?p skos:inScheme tgn:; luc:term \"%s\"; gvp:prefLabelGVP [xl:literalForm ?pLab].\n", sparqlEscape(name))

	if countryCode != "" {
		country := countryTerm(countryCode)
		fmt.Fprintf(&sb, "  ?pp1 skos:inScheme tgn:; luc:term \"%s\"; gvp:prefLabelGVP [xl:literalForm ?pp1Lab].\n", sparqlEscape(country))
		sb.WriteString("  ?p gvp:broaderPartitiveExtended ?pp1.\n")
	}

	if placeType != "" {
		if native, ok := t.types.ForSource(placeType, t.Source()); ok {
			fmt.Fprintf(&sb, "  ?p gvp:placeType [rdfs:label \"%s\"@%s].\n", sparqlEscape(native), t.lang)
		}
	}

	sb.WriteString("}\nLIMIT 20\n")

	return sb.String()
}

type tgnLODDocument struct {
	IdentifiedBy []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"identified_by"`
}

// FindCoordinates implements gazetteer.CoordinateFinder: fetches the linked
// open data JSON of a TGN place and extracts its spatial coordinates. The
// document stores them as a "[lon, lat]" literal.
func (t *TGN) FindCoordinates(ctx context.Context, c *gazetteer.Candidate) (float64, float64, error) {
	var doc tgnLODDocument
	if err := fetchJSON(ctx, t.client, t.Source(), c.ID+".json", "application/json", &doc); err != nil {
		return 0, 0, err
	}

	for _, item := range doc.IdentifiedBy {
		if item.Type != "crm:E47_Spatial_Coordinates" {
			continue
		}

		var coords []float64
		if err := json.Unmarshal([]byte(item.Value), &coords); err != nil || len(coords) != 2 {
			continue
		}

		lng, lat := coords[0], coords[1]

		return lat, lng, nil
	}

	return 0, 0, fmt.Errorf("no spatial coordinates in %s", c.ID)
}
