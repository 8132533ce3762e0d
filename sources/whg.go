// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/jcodagnone/georesolver/spatial"
)

// WHG queries the World Historical Gazetteer index API. Results come back as
// a GeoJSON feature collection whose properties carry the title, variant
// names, country codes and Linked Places feature class.
type WHG struct {
	endpoint string
	dataset  string
	client   *http.Client
	types    *gazetteer.PlaceTypeMapper
}

// NewWHG builds the WHG adapter. dataset restricts searches to one WHG
// collection; empty searches the whole index.
func NewWHG(endpoint, dataset string, client *http.Client, types *gazetteer.PlaceTypeMapper) *WHG {
	return &WHG{
		endpoint: strings.TrimRight(endpoint, "/"),
		dataset:  dataset,
		client:   client,
		types:    types,
	}
}

// Source implements gazetteer.Adapter.
func (w *WHG) Source() gazetteer.Source {
	return gazetteer.SourceWHG
}

// SupportsNativeCountryFilter implements gazetteer.Adapter. The ccodes
// parameter is passed to the API but its coverage is incomplete: records
// without country tagging come back regardless, so the engine re-filters.
func (w *WHG) SupportsNativeCountryFilter() bool {
	return false
}

type whgGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometries"`
}

type whgResponse struct {
	Features []struct {
		Properties struct {
			PlaceID  json.Number `json:"place_id"`
			Title    string      `json:"title"`
			Ccodes   []string    `json:"ccodes"`
			Fclasses []string    `json:"fclasses"`
			Variants []string    `json:"variants"`
		} `json:"properties"`
		Geometry *whgGeometry `json:"geometry"`
	} `json:"features"`
}

// QueryPlaceName implements gazetteer.Adapter.
func (w *WHG) QueryPlaceName(ctx context.Context, name, countryCode, _, placeType string) ([]gazetteer.Candidate, error) {
	if err := gazetteer.ValidateQueryParams(name, countryCode); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("name", strings.TrimSpace(name))

	if countryCode != "" {
		params.Set("ccodes", countryCode)
	}

	if placeType != "" {
		if native, ok := w.types.ForSource(placeType, w.Source()); ok {
			params.Set("fclass", native)
		}
	}

	if w.dataset != "" {
		params.Set("dataset", w.dataset)
	}

	var resp whgResponse
	if err := fetchJSON(ctx, w.client, w.Source(), w.endpoint+"/index/?"+params.Encode(), "application/json", &resp); err != nil {
		return nil, err
	}

	candidates := make([]gazetteer.Candidate, 0, len(resp.Features))

	for _, feature := range resp.Features {
		props := feature.Properties

		alts := make([]gazetteer.AltName, 0, len(props.Variants))
		for _, variant := range props.Variants {
			alts = append(alts, gazetteer.AltName{Name: variant})
		}

		var (
			country    string
			nativeType string
		)

		if len(props.Ccodes) > 0 {
			country = props.Ccodes[0]
		}

		if len(props.Fclasses) > 0 {
			nativeType = props.Fclasses[0]
		}

		candidate, ok := gazetteer.NewCandidate(gazetteer.Candidate{
			Source:      w.Source(),
			ID:          props.PlaceID.String(),
			Name:        props.Title,
			AltNames:    alts,
			Point:       pointFromWHGGeometry(feature.Geometry),
			PlaceType:   w.types.Normalize(w.Source(), nativeType),
			NativeType:  nativeType,
			CountryCode: country,
		})
		if !ok {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// pointFromWHGGeometry extracts a coordinate pair from a GeoJSON geometry.
// WHG serves Points and, for places with several attested locations,
// GeometryCollections, of which the first Point is taken. GeoJSON order is
// [lon, lat].
func pointFromWHGGeometry(geom *whgGeometry) *spatial.Point {
	if geom == nil {
		return nil
	}

	if geom.Type == "Point" {
		var coords []float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil || len(coords) != 2 {
			return nil
		}

		return &spatial.Point{Lat: coords[1], Lng: coords[0]}
	}

	if geom.Type == "GeometryCollection" {
		for _, g := range geom.Geometries {
			if g.Type == "Point" && len(g.Coordinates) == 2 {
				return &spatial.Point{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}
			}
		}
	}

	return nil
}
