// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/georesolver/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
