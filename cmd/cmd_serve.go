// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/jcodagnone/georesolver/config"
	"github.com/jcodagnone/georesolver/server"
	"github.com/spf13/cobra"
)

var serveTrace traceOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the resolver over HTTP",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		resolver, err := buildResolver(cfg, serveTrace)
		if err != nil {
			return err
		}

		log.Printf("Listening on %s", cfg.Server.Addr)

		return server.NewServer(resolver, cfg.Server.Addr).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(
		&serveTrace.HTTP,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	serveCmd.Flags().BoolVar(
		&serveTrace.HTTPBody,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
