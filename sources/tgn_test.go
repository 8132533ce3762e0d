// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTypes() *gazetteer.PlaceTypeMapper {
	return gazetteer.NewPlaceTypeMapper(map[string]map[gazetteer.Source]string{
		"city": {
			gazetteer.SourceTGN:      "cities",
			gazetteer.SourceWHG:      "P",
			gazetteer.SourceGeonames: "P",
			gazetteer.SourceWikidata: "Q515",
		},
	})
}

func TestTGNQueryPlaceName(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		assert.Contains(t, r.Header.Get("Accept"), "sparql-results+json")

		w.Header().Set("Content-Type", "application/sparql-results+json")
		_, _ = w.Write([]byte(`{
			"results": {"bindings": [
				{
					"p": {"value": "http://vocab.getty.edu/tgn/7011781"},
					"pLab": {"value": "Montevideo", "xml:lang": "es"},
					"pp1": {"value": "http://vocab.getty.edu/tgn/1000233"},
					"pp1Lab": {"value": "Uruguay"}
				},
				{
					"p": {"value": "http://vocab.getty.edu/tgn/7011781"},
					"pLab": {"value": "Montevideo", "xml:lang": "es"}
				}
			]}
		}`))
	}))
	defer server.Close()

	tgn := NewTGN(server.URL, "en", server.Client(), testTypes())

	candidates, err := tgn.QueryPlaceName(context.Background(), "Montevideo", "UY", "", "city")
	require.NoError(t, err)

	// The repeated URI is deduplicated.
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, gazetteer.SourceTGN, c.Source)
	assert.Equal(t, "http://vocab.getty.edu/tgn/7011781", c.ID)
	assert.Equal(t, "Montevideo", c.Name)
	assert.Equal(t, "es", c.NameLang)
	require.Len(t, c.PartOf, 1)
	assert.Equal(t, "Uruguay", c.PartOf[0].Name)
	assert.Nil(t, c.Point, "search hits carry no inline coordinates")

	// The SPARQL text carries the name, the country containment and the
	// mapped place type.
	assert.Contains(t, gotQuery, `luc:term "Montevideo"`)
	assert.Contains(t, gotQuery, `luc:term "Uruguay"`)
	assert.Contains(t, gotQuery, "gvp:broaderPartitiveExtended")
	assert.Contains(t, gotQuery, `rdfs:label "cities"@en`)
	assert.Contains(t, gotQuery, "LIMIT 20")
}

func TestTGNQueryWithoutCountrySkipsContainment(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"results": {"bindings": []}}`))
	}))
	defer server.Close()

	tgn := NewTGN(server.URL, "en", server.Client(), testTypes())

	candidates, err := tgn.QueryPlaceName(context.Background(), "Montevideo", "", "", "")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.NotContains(t, gotQuery, "broaderPartitiveExtended")
	assert.NotContains(t, gotQuery, "placeType")
}

func TestTGNQueryEscapesName(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"results": {"bindings": []}}`))
	}))
	defer server.Close()

	tgn := NewTGN(server.URL, "en", server.Client(), testTypes())

	_, err := tgn.QueryPlaceName(context.Background(), `San "Pedro"`, "", "", "")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, `luc:term "San \"Pedro\""`)
}

func TestTGNRejectsInvalidParams(t *testing.T) {
	tgn := NewTGN("http://unused", "en", http.DefaultClient, testTypes())

	_, err := tgn.QueryPlaceName(context.Background(), "  ", "", "", "")
	assert.True(t, gazetteer.IsInvalidParameter(err))

	_, err = tgn.QueryPlaceName(context.Background(), "Montevideo", "uy", "", "")
	assert.True(t, gazetteer.IsInvalidParameter(err))
}

func TestTGNClassifiesHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tgn := NewTGN(server.URL, "en", server.Client(), testTypes())

	_, err := tgn.QueryPlaceName(context.Background(), "Montevideo", "", "", "")
	assert.True(t, gazetteer.IsTransport(err))
}

func TestTGNFindCoordinates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tgn/7011781.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"identified_by": [
				{"type": "Name", "value": "Montevideo"},
				{"type": "crm:E47_Spatial_Coordinates", "value": "[-56.171,-34.858]"}
			]
		}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	tgn := NewTGN(server.URL, "en", server.Client(), testTypes())
	candidate := &gazetteer.Candidate{Source: gazetteer.SourceTGN, ID: server.URL + "/tgn/7011781"}

	lat, lng, err := tgn.FindCoordinates(context.Background(), candidate)
	require.NoError(t, err)

	// The document literal is [lon, lat].
	assert.InDelta(t, -34.858, lat, 0.001)
	assert.InDelta(t, -56.171, lng, 0.001)
}

func TestTGNFindCoordinatesMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tgn/1.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"identified_by": [{"type": "Name", "value": "Somewhere"}]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	tgn := NewTGN(server.URL, "en", server.Client(), testTypes())
	candidate := &gazetteer.Candidate{Source: gazetteer.SourceTGN, ID: server.URL + "/tgn/1"}

	_, _, err := tgn.FindCoordinates(context.Background(), candidate)
	assert.Error(t, err)
}
