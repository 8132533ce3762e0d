// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/jcodagnone/georesolver/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver resolves names by lookup table; unknown names are no-matches
// and names starting with "err" fail.
type fakeResolver struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeResolver) Resolve(_ context.Context, q gazetteer.Query) (*gazetteer.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q.Name)
	f.mu.Unlock()

	if strings.HasPrefix(q.Name, "err") {
		return nil, gazetteer.NewSourceUnavailable(errors.New("down"))
	}

	if q.Name == "Montevideo" {
		return &gazetteer.Result{
			Outcome: gazetteer.OutcomeMatched,
			Score:   100,
			Method:  "geonames",
			Best: &gazetteer.Candidate{
				Source: gazetteer.SourceGeonames,
				ID:     "3441575",
				Name:   "Montevideo",
				Point:  &spatial.Point{Lat: -34.9, Lng: -56.2},
			},
		}, nil
	}

	return &gazetteer.Result{Outcome: gazetteer.OutcomeNoMatch}, nil
}

func TestDriverRun(t *testing.T) {
	resolver := &fakeResolver{}
	driver := NewDriver(resolver, DriverOptions{MaxProcs: 2, Quiet: true})

	rows := []Row{
		{Name: "Montevideo", Country: "UY"},
		{Name: "Xyzzyland"},
		{Name: "err-source-down"},
	}

	results, metrics, err := driver.Run(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results stay in input order regardless of completion order.
	assert.Equal(t, "Montevideo", results[0].Name)
	assert.Equal(t, gazetteer.OutcomeMatched, results[0].Outcome)
	assert.Equal(t, "geonames", results[0].Source)
	assert.Equal(t, "3441575", results[0].MatchedID)
	require.NotNil(t, results[0].Point)

	assert.Equal(t, gazetteer.OutcomeNoMatch, results[1].Outcome)
	assert.Empty(t, results[1].Err)

	assert.Contains(t, results[2].Err, "all sources failed")
	assert.Empty(t, results[2].Outcome)

	assert.Equal(t, &Metrics{Matched: 1, NoMatch: 1, Failed: 1}, metrics)
}

func TestDriverRunEmptyInput(t *testing.T) {
	driver := NewDriver(&fakeResolver{}, DriverOptions{Quiet: true})

	results, metrics, err := driver.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, &Metrics{}, metrics)
}

func TestDriverRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := NewDriver(&fakeResolver{}, DriverOptions{Quiet: true})

	_, _, err := driver.Run(ctx, []Row{{Name: "Montevideo"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriverRunDrainsInFlightRowsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{}, 1)

	var inFlight atomic.Int32

	blocked := resolverFunc(func(ctx context.Context, _ gazetteer.Query) (*gazetteer.Result, error) {
		inFlight.Add(1)
		defer inFlight.Add(-1)

		select {
		case started <- struct{}{}:
		default:
		}

		<-ctx.Done()

		return nil, ctx.Err()
	})

	driver := NewDriver(blocked, DriverOptions{MaxProcs: 1, Quiet: true})
	rows := []Row{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}

	done := make(chan error, 1)

	go func() {
		_, _, err := driver.Run(ctx, rows)
		done <- err
	}()

	<-started // first row is in flight, the loop is parked on the semaphore
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inFlight.Load(), "no resolution may outlive Run")
}

func TestDriverPassesQueryContext(t *testing.T) {
	var got gazetteer.Query

	capture := resolverFunc(func(_ context.Context, q gazetteer.Query) (*gazetteer.Result, error) {
		got = q

		return &gazetteer.Result{Outcome: gazetteer.OutcomeNoMatch}, nil
	})

	driver := NewDriver(capture, DriverOptions{
		Quiet:          true,
		SourcePriority: []gazetteer.Source{gazetteer.SourceWHG},
	})

	_, _, err := driver.Run(context.Background(), []Row{
		{Name: "Cusco", Country: "PE", Language: "qu", PlaceType: "city"},
	})
	require.NoError(t, err)

	assert.Equal(t, gazetteer.Query{
		Name:           "Cusco",
		CountryCode:    "PE",
		Language:       "qu",
		PlaceType:      "city",
		SourcePriority: []gazetteer.Source{gazetteer.SourceWHG},
	}, got)
}

func TestMetricsMerge(t *testing.T) {
	total := &Metrics{Matched: 1, NoMatch: 2, Failed: 3}
	total.Merge(&Metrics{Matched: 10, NoMatch: 20, Failed: 30})

	assert.Equal(t, &Metrics{Matched: 11, NoMatch: 22, Failed: 33}, total)
}

// resolverFunc adapts a function to the Resolver contract.
type resolverFunc func(ctx context.Context, q gazetteer.Query) (*gazetteer.Result, error)

func (f resolverFunc) Resolve(ctx context.Context, q gazetteer.Query) (*gazetteer.Result, error) {
	return f(ctx, q)
}
