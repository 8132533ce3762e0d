// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/georesolver/batch"
	"github.com/jcodagnone/georesolver/config"
	"github.com/spf13/cobra"
)

var batchOptions struct {
	Output   string
	DbPath   string
	MaxProcs int
	Sources  []string
	Quiet    bool
	trace    traceOptions
}

var batchCmd = &cobra.Command{
	Use:   "batch <input.csv>",
	Short: "Resolve a CSV of place names",
	Long: `
Reads a CSV whose header names a required 'name' column and optional
'country', 'language' and 'place_type' columns, resolves every row and
writes the results as CSV. With --db the results also land in a DuckDB
file, with the H3 cell hierarchy of every matched point.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		resolver, err := buildResolver(cfg, batchOptions.trace)
		if err != nil {
			return err
		}

		input, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer input.Close()

		rows, err := batch.ReadRows(input)
		if err != nil {
			return err
		}

		priority, err := parseSources(batchOptions.Sources)
		if err != nil {
			return err
		}

		driver := batch.NewDriver(resolver, batch.DriverOptions{
			MaxProcs:       batchOptions.MaxProcs,
			SourcePriority: priority,
			Quiet:          batchOptions.Quiet,
		})

		results, _, err := driver.Run(cmd.Context(), rows)
		if err != nil {
			return err
		}

		if batchOptions.DbPath != "" {
			if err := persistResults(batchOptions.DbPath, results); err != nil {
				return err
			}
		}

		output := os.Stdout

		if batchOptions.Output != "" {
			output, err = os.Create(batchOptions.Output)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer output.Close()
		}

		return batch.WriteResults(output, results)
	},
}

func persistResults(path string, results []batch.RowResult) error {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	repo := batch.NewResultRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	if err := repo.BulkInsert(results); err != nil {
		return fmt.Errorf("storing results: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(
		&batchOptions.Output,
		"output",
		"o",
		"",
		"Write the CSV output here instead of stdout",
	)
	batchCmd.Flags().StringVar(
		&batchOptions.DbPath,
		"db",
		"",
		"Also store the results in this DuckDB file",
	)
	batchCmd.Flags().IntVar(
		&batchOptions.MaxProcs,
		"max-procs",
		0,
		"Max number of rows resolved concurrently. Defaults to the number of CPUs",
	)
	batchCmd.Flags().StringSliceVar(
		&batchOptions.Sources,
		"sources",
		nil,
		"Sources to query, in priority order. Defaults to the configured priority",
	)
	batchCmd.Flags().BoolVar(
		&batchOptions.Quiet,
		"quiet",
		false,
		"Suppress the progress bar",
	)
	batchCmd.Flags().BoolVar(
		&batchOptions.trace.HTTP,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	batchCmd.Flags().BoolVar(
		&batchOptions.trace.HTTPBody,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
