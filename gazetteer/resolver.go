// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jcodagnone/georesolver/spatial"
)

// Query is one resolution request.
type Query struct {
	// Name is the place name to resolve. Required.
	Name string

	// CountryCode restricts candidates to one country. Accepts alpha-2,
	// alpha-3 or an English country name; normalized before any source is
	// queried.
	CountryCode string

	// Language is an advisory preference for name languages.
	Language string

	// PlaceType is a shared-vocabulary place type hint.
	PlaceType string

	// SourcePriority selects and orders the sources to query. Empty means
	// all configured sources in registration order.
	SourcePriority []Source
}

// ResolverOptions tune the engine. The zero value selects the defaults.
type ResolverOptions struct {
	// AdapterTimeout bounds each source query. A slow source contributes
	// zero candidates instead of blocking the others. Default 10s.
	AdapterTimeout time.Duration

	// Policy is the length-adaptive admission policy.
	Policy ThresholdPolicy

	// Epsilon is the score distance under which two candidates are
	// considered tied. Default 0.01.
	Epsilon float64

	// Countries validates and normalizes country codes. Defaults to the
	// CLDR-backed RegionNormalizer.
	Countries CountryNormalizer
}

const (
	defaultAdapterTimeout = 10 * time.Second
	defaultEpsilon        = 0.01
)

// Resolver orchestrates the source adapters: query, merge, filter, score,
// select. It keeps no state across calls and is safe for concurrent use.
type Resolver struct {
	adapters []Adapter
	bySource map[Source]Adapter
	scorer   *Scorer
	countrs  CountryNormalizer
	timeout  time.Duration
	epsilon  float64
}

// NewResolver builds a Resolver over the given adapters, which are queried in
// the given order unless a Query overrides the priority.
func NewResolver(adapters []Adapter, opts *ResolverOptions) (*Resolver, error) {
	if len(adapters) == 0 {
		return nil, errors.New("at least one source adapter is required")
	}

	if opts == nil {
		opts = &ResolverOptions{}
	}

	policy := opts.Policy
	if policy == (ThresholdPolicy{}) {
		policy = DefaultThresholdPolicy()
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("threshold policy: %w", err)
	}

	timeout := opts.AdapterTimeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}

	epsilon := opts.Epsilon
	if epsilon <= 0 {
		epsilon = defaultEpsilon
	}

	countries := opts.Countries
	if countries == nil {
		countries = NewRegionNormalizer()
	}

	bySource := make(map[Source]Adapter, len(adapters))

	for _, a := range adapters {
		if _, dup := bySource[a.Source()]; dup {
			return nil, fmt.Errorf("duplicate adapter for source %q", a.Source())
		}

		bySource[a.Source()] = a
	}

	return &Resolver{
		adapters: adapters,
		bySource: bySource,
		scorer:   NewScorer(policy),
		countrs:  countries,
		timeout:  timeout,
		epsilon:  epsilon,
	}, nil
}

// Resolve answers one request: the best candidate across all sources, or an
// explicit no-match. A failing source is isolated and logged; only the
// failure of every queried source is an error (SourceUnavailable), which is
// never reported as a no-match.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, NewInvalidParameter("place name must not be blank")
	}

	countryCode := ""

	if q.CountryCode != "" {
		normalized, err := r.countrs.Normalize(q.CountryCode)
		if err != nil {
			return nil, err
		}

		countryCode = normalized
	}

	adapters, err := r.orderedAdapters(q.SourcePriority)
	if err != nil {
		return nil, err
	}

	merged, err := r.querySources(ctx, adapters, q, countryCode)
	if err != nil {
		return nil, err
	}

	filter := &ContextFilter{
		CountryCode: countryCode,
		PlaceType:   q.PlaceType,
		Language:    q.Language,
	}

	candidates := filter.Apply(merged, func(src Source) bool {
		adapter, ok := r.bySource[src]

		return ok && adapter.SupportsNativeCountryFilter()
	})

	best, score := r.selectBest(q.Name, candidates, adapters)
	if best == nil {
		return &Result{Outcome: OutcomeNoMatch}, nil
	}

	r.completeCoordinates(ctx, best)

	log.Printf("Resolved %q via %s: %q (%.1f%%)", q.Name, best.Source, best.Name, score)

	return &Result{
		Outcome: OutcomeMatched,
		Best:    best,
		Score:   score,
		Method:  string(best.Source),
	}, nil
}

// orderedAdapters returns the adapters to query, honoring the caller's
// priority order when given.
func (r *Resolver) orderedAdapters(priority []Source) ([]Adapter, error) {
	if len(priority) == 0 {
		return r.adapters, nil
	}

	ordered := make([]Adapter, 0, len(priority))
	seen := make(map[Source]bool, len(priority))

	for _, src := range priority {
		adapter, ok := r.bySource[src]
		if !ok {
			return nil, NewInvalidParameter("no adapter configured for source %q", src)
		}

		if seen[src] {
			return nil, NewInvalidParameter("source %q listed twice in priority", src)
		}

		seen[src] = true

		ordered = append(ordered, adapter)
	}

	return ordered, nil
}

type sourceAnswer struct {
	rank       int
	source     Source
	candidates []Candidate
	err        error
}

// querySources runs all adapters concurrently, each under its own timeout,
// and merges their candidates in priority order. Individual failures are
// logged and skipped; if every adapter fails the request fails with
// SourceUnavailable rather than a false no-match.
func (r *Resolver) querySources(ctx context.Context, adapters []Adapter, q Query, countryCode string) ([]Candidate, error) {
	answers := make([]sourceAnswer, len(adapters))

	var wg sync.WaitGroup

	for i, adapter := range adapters {
		wg.Add(1)

		go func(rank int, adapter Adapter) {
			defer wg.Done()

			queryCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			candidates, err := adapter.QueryPlaceName(queryCtx, q.Name, countryCode, q.Language, q.PlaceType)
			answers[rank] = sourceAnswer{
				rank:       rank,
				source:     adapter.Source(),
				candidates: candidates,
				err:        err,
			}
		}(i, adapter)
	}

	wg.Wait()

	var (
		merged []Candidate
		errs   []error
	)

	for _, answer := range answers {
		if answer.err != nil {
			log.Printf("Source %s failed for %q: %s", answer.source, q.Name, answer.err)
			errs = append(errs, fmt.Errorf("%s: %w", answer.source, answer.err))

			continue
		}

		merged = append(merged, answer.candidates...)
	}

	if len(errs) == len(adapters) {
		return nil, NewSourceUnavailable(errors.Join(errs...))
	}

	return merged, nil
}

type scored struct {
	candidate Candidate
	score     float64
	rank      int // position of the source in the priority order
}

// selectBest scores the filtered candidates, discards those below the
// length-adaptive threshold and picks the winner. Near-ties (within epsilon)
// break deterministically: coordinates present beat absent, then the earlier
// source in the priority order, then the shorter containment chain, then the
// earlier merge position.
func (r *Resolver) selectBest(queryName string, candidates []Candidate, adapters []Adapter) (*Candidate, float64) {
	rankOf := make(map[Source]int, len(adapters))
	for i, a := range adapters {
		rankOf[a.Source()] = i
	}

	threshold := r.scorer.Policy.ThresholdFor(queryName)

	var qualified []scored

	for _, c := range candidates {
		score := r.scorer.Score(queryName, &c)
		if score < threshold {
			continue
		}

		qualified = append(qualified, scored{candidate: c, score: score, rank: rankOf[c.Source]})
	}

	if len(qualified) == 0 {
		return nil, 0
	}

	best := qualified[0]
	for _, challenger := range qualified[1:] {
		if r.beats(challenger, best) {
			best = challenger
		}
	}

	return &best.candidate, best.score
}

func (r *Resolver) beats(a, b scored) bool {
	if a.score > b.score+r.epsilon {
		return true
	}

	if a.score < b.score-r.epsilon {
		return false
	}

	// Tied within epsilon.
	if a.candidate.HasCoordinates() != b.candidate.HasCoordinates() {
		return a.candidate.HasCoordinates()
	}

	if a.rank != b.rank {
		return a.rank < b.rank
	}

	return len(a.candidate.PartOf) < len(b.candidate.PartOf)
}

// completeCoordinates fetches coordinates for a winner that lacks them, when
// its source supports the follow-up lookup. Best-effort: failures leave the
// candidate without coordinates.
func (r *Resolver) completeCoordinates(ctx context.Context, c *Candidate) {
	if c.HasCoordinates() {
		return
	}

	finder, ok := r.bySource[c.Source].(CoordinateFinder)
	if !ok {
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	lat, lng, err := finder.FindCoordinates(lookupCtx, c)
	if err != nil {
		log.Printf("Coordinate lookup failed for %s %s: %s", c.Source, c.ID, err)

		return
	}

	point := &spatial.Point{Lat: lat, Lng: lng}
	if point.Valid() {
		c.Point = point
	}
}

// SourcesInfo describes the configured adapters, for diagnostics endpoints.
func (r *Resolver) SourcesInfo() []SourceInfo {
	info := make([]SourceInfo, 0, len(r.adapters))
	for _, a := range r.adapters {
		info = append(info, SourceInfo{
			Source:              a.Source(),
			NativeCountryFilter: a.SupportsNativeCountryFilter(),
		})
	}

	sort.Slice(info, func(i, j int) bool { return info[i].Source < info[j].Source })

	return info
}

// SourceInfo is a diagnostic description of one configured adapter.
type SourceInfo struct {
	Source              Source `json:"source"`
	NativeCountryFilter bool   `json:"native_country_filter"`
}
