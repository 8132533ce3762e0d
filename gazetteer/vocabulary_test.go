// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMapper() *PlaceTypeMapper {
	return NewPlaceTypeMapper(map[string]map[Source]string{
		"city": {
			SourceTGN:      "cities",
			SourceGeonames: "P",
			SourceWikidata: "Q515",
		},
		"river": {
			SourceTGN:      "rivers",
			SourceWHG:      "H",
			SourceGeonames: "H",
		},
	})
}

func TestPlaceTypeMapperForSource(t *testing.T) {
	m := testMapper()

	tests := []struct {
		shared string
		source Source
		want   string
		wantOk bool
	}{
		{"city", SourceTGN, "cities", true},
		{"City", SourceGeonames, "P", true},
		{" RIVER ", SourceWHG, "H", true},
		{"city", SourceWHG, "", false}, // no mapping for this source
		{"volcano", SourceTGN, "", false},
	}

	for _, tt := range tests {
		got, ok := m.ForSource(tt.shared, tt.source)
		assert.Equal(t, tt.wantOk, ok, "ForSource(%q, %q)", tt.shared, tt.source)
		assert.Equal(t, tt.want, got, "ForSource(%q, %q)", tt.shared, tt.source)
	}
}

func TestPlaceTypeMapperNormalize(t *testing.T) {
	m := testMapper()

	tests := []struct {
		source Source
		native string
		want   string
	}{
		{SourceTGN, "cities", "city"},
		{SourceTGN, "CITIES", "city"},
		{SourceWikidata, "Q515", "city"},
		{SourceGeonames, "H", "river"},
		{SourceTGN, "volcanoes", PlaceTypeUnknown},
		{SourceTGN, "", PlaceTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Normalize(tt.source, tt.native),
			"Normalize(%q, %q)", tt.source, tt.native)
	}
}

// Several shared terms may share a native type (Geonames tags every populated
// place "P"). The reverse mapping must still answer the same term every run.
func TestPlaceTypeMapperReverseCollisionsAreDeterministic(t *testing.T) {
	build := func() string {
		m := NewPlaceTypeMapper(map[string]map[Source]string{
			"village": {SourceGeonames: "P"},
			"city":    {SourceGeonames: "P"},
			"town":    {SourceGeonames: "P"},
		})

		return m.Normalize(SourceGeonames, "P")
	}

	first := build()
	assert.Equal(t, "city", first)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, build())
	}
}

func TestLoadPlaceTypeMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"city": {"tgn": "cities", "geonames": "P"}
	}`), 0o600))

	m, err := LoadPlaceTypeMap(path)
	require.NoError(t, err)

	native, ok := m.ForSource("city", SourceTGN)
	require.True(t, ok)
	assert.Equal(t, "cities", native)
}

func TestLoadPlaceTypeMapErrors(t *testing.T) {
	_, err := LoadPlaceTypeMap(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"city": {"osm": "x"}}`), 0o600))

	_, err = LoadPlaceTypeMap(bad)
	assert.Error(t, err)
}

func TestSharedTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{"city", "river"}, testMapper().SharedTypes())
}
