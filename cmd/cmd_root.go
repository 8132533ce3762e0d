// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})

	// Credentials such as GEONAMES_USERNAME live in .env during development.
	_ = godotenv.Load()
}

var rootCmd = &cobra.Command{
	Use:   "georesolver",
	Short: "place-name resolution across public gazetteers",
	Long: `
georesolver matches free-form place names against the Getty Thesaurus of
Geographic Names, the World Historical Gazetteer, Geonames and Wikidata,
and picks the best candidate with a length-adaptive fuzzy score.
`,
}

var configPath string

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"",
		"Path of the YAML configuration file. Defaults apply when omitted",
	)
}
