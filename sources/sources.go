// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package sources contains the gazetteer source adapters. Each adapter wraps
// one external data source behind the common query contract and translates
// the source's native schema into normalized candidates. Transport concerns
// (logging, rate limiting, caching) live in the injected http.Client.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jcodagnone/georesolver/gazetteer"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Sources answer well under a megabyte; anything larger is a broken payload.
const maxResponseBytes = 8 << 20

// fetchJSON performs one GET against a source and decodes the JSON answer.
// Non-2xx statuses are classified into the engine's error taxonomy.
func fetchJSON(ctx context.Context, client *http.Client, src gazetteer.Source, url, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", src, err)
	}

	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return gazetteer.NewTransport(fmt.Sprintf("querying %s", src), err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gazetteer.ClassifyHTTPStatus(resp.StatusCode, src)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return gazetteer.NewTransport(fmt.Sprintf("decoding %s response", src), err)
	}

	return nil
}

// countryTerm turns a validated alpha-2 code into the English country name,
// for sources that search countries by name rather than by code.
func countryTerm(alpha2 string) string {
	region, err := language.ParseRegion(alpha2)
	if err != nil || !region.IsCountry() {
		return alpha2
	}

	if name := display.English.Regions().Name(region); name != "" {
		return name
	}

	return alpha2
}

// sparqlEscape escapes a literal embedded in a SPARQL query.
func sparqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)

	return s
}
