// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch maps a table of place names onto a table of resolved rows.
// It owns the file and database surfaces the resolution engine deliberately
// lacks.
package batch

import (
	"context"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/jcodagnone/georesolver/spatial"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Row is one input record.
type Row struct {
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	Language  string `json:"language,omitempty"`
	PlaceType string `json:"place_type,omitempty"`
}

// RowResult is one resolved output record. Exactly one of Outcome or Err is
// meaningful: failed rows keep the error text and an empty outcome.
type RowResult struct {
	Row
	Outcome     gazetteer.Outcome `json:"outcome,omitempty"`
	Source      string            `json:"source,omitempty"`
	Score       float64           `json:"score,omitempty"`
	MatchedName string            `json:"matched_name,omitempty"`
	MatchedID   string            `json:"matched_id,omitempty"`
	Point       *spatial.Point    `json:"point,omitempty"`
	Err         string            `json:"error,omitempty"`
}

// Metrics tracks statistics of one batch run.
type Metrics struct {
	Matched int
	NoMatch int
	Failed  int
}

// Merge combines two Metrics objects.
func (m *Metrics) Merge(o *Metrics) *Metrics {
	m.Matched += o.Matched
	m.NoMatch += o.NoMatch
	m.Failed += o.Failed

	return m
}

// Resolver is the slice of the engine the driver needs.
type Resolver interface {
	Resolve(ctx context.Context, q gazetteer.Query) (*gazetteer.Result, error)
}

// DriverOptions configures a batch run.
type DriverOptions struct {
	// MaxProcs bounds the number of in-flight resolutions; zero means
	// one per CPU. The transport layer still throttles per source.
	MaxProcs int

	// SourcePriority is applied to every row.
	SourcePriority []gazetteer.Source

	// Quiet suppresses the progress bar even on a terminal.
	Quiet bool
}

// Driver resolves rows through a shared engine. The engine is stateless, so
// one driver instance may run many batches.
type Driver struct {
	resolver Resolver
	options  DriverOptions
}

// NewDriver builds a Driver.
func NewDriver(resolver Resolver, options DriverOptions) *Driver {
	return &Driver{resolver: resolver, options: options}
}

// Run resolves every row and returns the results in input order. Row
// failures (including invalid rows) are recorded on the row, not raised;
// only a canceled context aborts the run.
func (d *Driver) Run(ctx context.Context, rows []Row) ([]RowResult, *Metrics, error) {
	n := len(rows)
	results := make([]RowResult, n)

	maxProcs := d.options.MaxProcs
	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if !d.options.Quiet && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, maxProcs)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			wg.Wait()

			return nil, nil, err
		}

		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			// Drain before returning so no goroutine outlives the run.
			wg.Wait()

			return nil, nil, ctx.Err()
		}

		wg.Add(1)

		go func(i int, row Row) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = d.resolveRow(ctx, row)

			if bar != nil {
				_ = bar.Add(1)
			}
		}(i, row)
	}

	wg.Wait()

	metrics := &Metrics{}

	for i := range results {
		switch {
		case results[i].Err != "":
			metrics.Failed++
		case results[i].Outcome == gazetteer.OutcomeMatched:
			metrics.Matched++
		default:
			metrics.NoMatch++
		}
	}

	log.Printf(
		"Batch complete - %d matched, %d without match, %d failed of %d rows",
		metrics.Matched, metrics.NoMatch, metrics.Failed, n,
	)

	return results, metrics, nil
}

func (d *Driver) resolveRow(ctx context.Context, row Row) RowResult {
	result := RowResult{Row: row}

	resolved, err := d.resolver.Resolve(ctx, gazetteer.Query{
		Name:           row.Name,
		CountryCode:    row.Country,
		Language:       row.Language,
		PlaceType:      row.PlaceType,
		SourcePriority: d.options.SourcePriority,
	})
	if err != nil {
		result.Err = err.Error()

		return result
	}

	result.Outcome = resolved.Outcome

	if resolved.Matched() {
		result.Source = resolved.Method
		result.Score = resolved.Score
		result.MatchedName = resolved.Best.Name
		result.MatchedID = resolved.Best.ID
		result.Point = resolved.Best.Point
	}

	return result
}
