// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/jcodagnone/georesolver/spatial"
)

// Geonames queries the Geonames search API. Unlike the historical
// gazetteers it is dense and current, tags alternate names per language and
// filters by country natively.
type Geonames struct {
	endpoint string
	username string
	client   *http.Client
	types    *gazetteer.PlaceTypeMapper
}

// NewGeonames builds the Geonames adapter. The API requires a registered
// username on every call.
func NewGeonames(endpoint, username string, client *http.Client, types *gazetteer.PlaceTypeMapper) (*Geonames, error) {
	if username == "" {
		return nil, errors.New("geonames: username is required")
	}

	return &Geonames{
		endpoint: strings.TrimRight(endpoint, "/"),
		username: username,
		client:   client,
		types:    types,
	}, nil
}

// Source implements gazetteer.Adapter.
func (g *Geonames) Source() gazetteer.Source {
	return gazetteer.SourceGeonames
}

// SupportsNativeCountryFilter implements gazetteer.Adapter.
func (g *Geonames) SupportsNativeCountryFilter() bool {
	return true
}

// Geonames serializes latitude and longitude as strings.
type geonamesResponse struct {
	Geonames []struct {
		GeonameID      int64  `json:"geonameId"`
		Name           string `json:"name"`
		Lat            string `json:"lat"`
		Lng            string `json:"lng"`
		CountryCode    string `json:"countryCode"`
		Fcl            string `json:"fcl"`
		Fcode          string `json:"fcode"`
		AlternateNames []struct {
			Name string `json:"name"`
			Lang string `json:"lang"`
		} `json:"alternateNames"`
	} `json:"geonames"`
}

// QueryPlaceName implements gazetteer.Adapter.
func (g *Geonames) QueryPlaceName(ctx context.Context, name, countryCode, language, placeType string) ([]gazetteer.Candidate, error) {
	if err := gazetteer.ValidateQueryParams(name, countryCode); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", strings.TrimSpace(name))
	params.Set("username", g.username)
	params.Set("maxRows", "10")
	params.Set("type", "json")
	params.Set("style", "FULL")

	if countryCode != "" {
		params.Set("country", countryCode)
	}

	if language != "" {
		params.Set("lang", language)
	}

	if placeType != "" {
		if native, ok := g.types.ForSource(placeType, g.Source()); ok {
			params.Set("featureClass", native)
		}
	}

	var resp geonamesResponse
	if err := fetchJSON(ctx, g.client, g.Source(), g.endpoint+"/searchJSON?"+params.Encode(), "application/json", &resp); err != nil {
		return nil, err
	}

	candidates := make([]gazetteer.Candidate, 0, len(resp.Geonames))

	for _, place := range resp.Geonames {
		alts := make([]gazetteer.AltName, 0, len(place.AlternateNames))
		for _, alt := range place.AlternateNames {
			alts = append(alts, gazetteer.AltName{Name: alt.Name, Lang: alt.Lang})
		}

		candidate, ok := gazetteer.NewCandidate(gazetteer.Candidate{
			Source:      g.Source(),
			ID:          strconv.FormatInt(place.GeonameID, 10),
			Name:        place.Name,
			AltNames:    alts,
			Point:       geonamesPoint(place.Lat, place.Lng),
			PlaceType:   g.types.Normalize(g.Source(), place.Fcl),
			NativeType:  place.Fcl,
			CountryCode: place.CountryCode,
		})
		if !ok {
			continue
		}

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func geonamesPoint(lat, lng string) *spatial.Point {
	latF, errLat := strconv.ParseFloat(lat, 64)
	lngF, errLng := strconv.ParseFloat(lng, 64)

	if errLat != nil || errLng != nil {
		return nil
	}

	return &spatial.Point{Lat: latF, Lng: lngF}
}
