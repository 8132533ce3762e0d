// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jcodagnone/georesolver/config"
	"github.com/jcodagnone/georesolver/gazetteer"
	"github.com/spf13/cobra"
)

var resolveOptions struct {
	Country   string
	Language  string
	PlaceType string
	Sources   []string
	JSON      bool
	trace     traceOptions
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve one place name against the configured gazetteers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		resolver, err := buildResolver(cfg, resolveOptions.trace)
		if err != nil {
			return err
		}

		priority, err := parseSources(resolveOptions.Sources)
		if err != nil {
			return err
		}

		result, err := resolver.Resolve(cmd.Context(), gazetteer.Query{
			Name:           args[0],
			CountryCode:    resolveOptions.Country,
			Language:       resolveOptions.Language,
			PlaceType:      resolveOptions.PlaceType,
			SourcePriority: priority,
		})
		if err != nil {
			return err
		}

		if resolveOptions.JSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(result)
		}

		if !result.Matched() {
			fmt.Printf("No match for %q\n", args[0])

			return nil
		}

		best := result.Best
		fmt.Printf("%s (%s %s), score %.1f\n", best.Name, best.Source, best.ID, result.Score)

		if best.Point != nil {
			fmt.Printf("  at %.5f, %.5f\n", best.Point.Lat, best.Point.Lng)
		}

		if best.CountryCode != "" {
			fmt.Printf("  country %s\n", best.CountryCode)
		}

		if best.PlaceType != gazetteer.PlaceTypeUnknown {
			fmt.Printf("  type %s (%s)\n", best.PlaceType, best.NativeType)
		}

		for _, parent := range best.PartOf {
			fmt.Printf("  within %s\n", parent.Name)
		}

		return nil
	},
}

func parseSources(names []string) ([]gazetteer.Source, error) {
	var priority []gazetteer.Source

	for _, name := range names {
		source, ok := gazetteer.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q, expected one of %v", name, gazetteer.Sources)
		}

		priority = append(priority, source)
	}

	return priority, nil
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(
		&resolveOptions.Country,
		"country",
		"",
		"Restrict candidates to one country (alpha-2, alpha-3 or English name)",
	)
	resolveCmd.Flags().StringVar(
		&resolveOptions.Language,
		"language",
		"",
		"Preferred language of returned names (advisory)",
	)
	resolveCmd.Flags().StringVar(
		&resolveOptions.PlaceType,
		"type",
		"",
		"Shared-vocabulary place type hint",
	)
	resolveCmd.Flags().StringSliceVar(
		&resolveOptions.Sources,
		"sources",
		nil,
		"Sources to query, in priority order. Defaults to the configured priority",
	)
	resolveCmd.Flags().BoolVar(
		&resolveOptions.JSON,
		"json",
		false,
		"Print the full result as JSON",
	)
	resolveCmd.Flags().BoolVar(
		&resolveOptions.trace.HTTP,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	resolveCmd.Flags().BoolVar(
		&resolveOptions.trace.HTTPBody,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
