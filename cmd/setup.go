// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jcodagnone/georesolver/config"
	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/jcodagnone/georesolver/sources"
	"github.com/jcodagnone/georesolver/utils/httpcache"
	"github.com/jcodagnone/georesolver/utils/httputils"
)

type traceOptions struct {
	HTTP     bool
	HTTPBody bool
}

// buildResolver turns a configuration into a wired engine: response cache,
// one throttled HTTP client per source, the four adapters and the resolver on
// top of them.
func buildResolver(cfg *config.Config, trace traceOptions) (*gazetteer.Resolver, error) {
	types, err := gazetteer.LoadPlaceTypeMap(cfg.Resolver.PlaceTypeMap)
	if err != nil {
		return nil, fmt.Errorf("loading place-type map: %w", err)
	}

	var cache httputils.ResponseCache = httpcache.NewMemory()

	if client := httpcache.OpenRedis(
		cfg.Transport.Redis.Addr,
		cfg.Transport.Redis.Password,
		cfg.Transport.Redis.DB,
	); client != nil {
		cache = httpcache.NewRedis(client, "")
	}

	var traceWriter io.Writer
	if trace.HTTP {
		traceWriter = os.Stderr
	}

	clientFor := func(requestsPerSecond float64) *http.Client {
		return httputils.NewClient(httputils.ClientOptions{
			UserAgent:         userAgent(cfg),
			RequestsPerSecond: requestsPerSecond,
			Cache:             cache,
			CacheTTL:          cfg.Transport.CacheTTL,
			TraceWriter:       traceWriter,
			TraceBody:         trace.HTTPBody,
		})
	}

	adapters := make(map[gazetteer.Source]gazetteer.Adapter, 4)

	adapters[gazetteer.SourceTGN] = sources.NewTGN(
		cfg.Sources.TGN.Endpoint,
		cfg.Sources.TGN.Lang,
		clientFor(cfg.Sources.TGN.RequestsPerSecond),
		types,
	)

	adapters[gazetteer.SourceWHG] = sources.NewWHG(
		cfg.Sources.WHG.Endpoint,
		cfg.Sources.WHG.Dataset,
		clientFor(cfg.Sources.WHG.RequestsPerSecond),
		types,
	)

	geonames, err := sources.NewGeonames(
		cfg.Sources.Geonames.Endpoint,
		cfg.Sources.Geonames.Username,
		clientFor(cfg.Sources.Geonames.RequestsPerSecond),
		types,
	)
	if err != nil {
		return nil, err
	}

	adapters[gazetteer.SourceGeonames] = geonames

	adapters[gazetteer.SourceWikidata] = sources.NewWikidata(
		cfg.Sources.Wikidata.SearchEndpoint,
		cfg.Sources.Wikidata.EntityEndpoint,
		clientFor(cfg.Sources.Wikidata.RequestsPerSecond),
		types,
	)

	ordered := make([]gazetteer.Adapter, 0, len(cfg.Resolver.Priority))

	for _, name := range cfg.Resolver.Priority {
		source, ok := gazetteer.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q in resolver.priority", name)
		}

		ordered = append(ordered, adapters[source])
	}

	return gazetteer.NewResolver(ordered, &gazetteer.ResolverOptions{
		AdapterTimeout: cfg.Resolver.AdapterTimeout,
		Policy: gazetteer.ThresholdPolicy{
			ShortNameLen:      cfg.Resolver.ShortNameLen,
			ShortThreshold:    cfg.Resolver.ShortThreshold,
			StandardThreshold: cfg.Resolver.StandardThreshold,
		},
	})
}

func userAgent(cfg *config.Config) string {
	if cfg.Transport.UserAgent != "" {
		return cfg.Transport.UserAgent
	}

	return fmt.Sprintf("georesolver/%s (+https://github.com/jcodagnone/georesolver)", Version)
}
