// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of diwctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("diwctl version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
