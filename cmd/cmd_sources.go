// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/jcodagnone/georesolver/config"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured gazetteer sources",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		resolver, err := buildResolver(cfg, traceOptions{})
		if err != nil {
			return err
		}

		a, b := strings.Repeat("─", 10), strings.Repeat("─", 21)
		fmt.Println("Configured sources:")
		fmt.Printf("╭─%-10s─┬─%-21s╮\n", a, b)
		fmt.Printf("│ %-10s │ %-21s│\n", "Source", "Native country filter")
		fmt.Printf("├─%-10s─┼─%-21s┤\n", a, b)

		for _, info := range resolver.SourcesInfo() {
			fmt.Printf("│ %-10s │ %-21t│\n", info.Source, info.NativeCountryFilter)
		}

		fmt.Printf("╰─%-10s─┴─%-21s╯\n", a, b)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
