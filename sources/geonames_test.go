// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeonamesRequiresUsername(t *testing.T) {
	_, err := NewGeonames("http://unused", "", http.DefaultClient, testTypes())
	assert.Error(t, err)
}

func TestGeonamesQueryPlaceName(t *testing.T) {
	var gotParams url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/searchJSON", r.URL.Path)
		gotParams = r.URL.Query()

		_, _ = w.Write([]byte(`{
			"geonames": [
				{
					"geonameId": 3441575,
					"name": "Montevideo",
					"lat": "-34.90328",
					"lng": "-56.18816",
					"countryCode": "UY",
					"fcl": "P",
					"fcode": "PPLC",
					"alternateNames": [
						{"name": "MVD", "lang": "iata"},
						{"name": "Монтевидео", "lang": "ru"}
					]
				},
				{
					"geonameId": 4,
					"name": "Broken",
					"lat": "not-a-number",
					"lng": "-56.1"
				}
			]
		}`))
	}))
	defer server.Close()

	geonames, err := NewGeonames(server.URL, "demo", server.Client(), testTypes())
	require.NoError(t, err)
	assert.True(t, geonames.SupportsNativeCountryFilter())

	candidates, err := geonames.QueryPlaceName(context.Background(), "Montevideo", "UY", "es", "city")
	require.NoError(t, err)

	assert.Equal(t, "Montevideo", gotParams.Get("q"))
	assert.Equal(t, "demo", gotParams.Get("username"))
	assert.Equal(t, "UY", gotParams.Get("country"))
	assert.Equal(t, "es", gotParams.Get("lang"))
	assert.Equal(t, "P", gotParams.Get("featureClass"))
	assert.Equal(t, "FULL", gotParams.Get("style"))

	require.Len(t, candidates, 2)

	c := candidates[0]
	assert.Equal(t, "3441575", c.ID)
	assert.Equal(t, "UY", c.CountryCode)
	assert.Equal(t, "city", c.PlaceType)
	assert.Equal(t, "P", c.NativeType)
	require.NotNil(t, c.Point)
	assert.InDelta(t, -34.90328, c.Point.Lat, 0.00001)
	assert.InDelta(t, -56.18816, c.Point.Lng, 0.00001)
	assert.Equal(t, []gazetteer.AltName{
		{Name: "MVD", Lang: "iata"},
		{Name: "Монтевидео", Lang: "ru"},
	}, c.AltNames)

	// Unparseable coordinates degrade to a candidate without a point.
	assert.Nil(t, candidates[1].Point)
}

func TestGeonamesRejectsInvalidParams(t *testing.T) {
	geonames, err := NewGeonames("http://unused", "demo", http.DefaultClient, testTypes())
	require.NoError(t, err)

	_, err = geonames.QueryPlaceName(context.Background(), "", "", "", "")
	assert.True(t, gazetteer.IsInvalidParameter(err))
}

func TestGeonamesPoint(t *testing.T) {
	assert.Nil(t, geonamesPoint("x", "0"))
	assert.Nil(t, geonamesPoint("0", ""))

	p := geonamesPoint("-34.9", "-56.1")
	require.NotNil(t, p)
	assert.InDelta(t, -34.9, p.Lat, 0.001)
	assert.InDelta(t, -56.1, p.Lng, 0.001)
}
