// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mita3055/diwctl/pkg/log"
	"github.com/Mita3055/diwctl/pkg/profile"
)

var rootCmd = &cobra.Command{
	Use:   "diwctl",
	Short: "Toolpath generation and execution for the DIW micro-printer",
	Long: `diwctl generates geometric print patterns as toolpath files and
replays them against a Klipper/Moonraker motion controller, synchronizing
camera captures, operator pauses, and the optional pressure feedback loop.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := log.GetLogger()
		logger.SetLevel(log.ParseLevel(flagLogLevel))
		if flagLogJSON {
			logger.SetFormat(log.FormatJSON)
		}
		return nil
	},
}

var (
	flagLogLevel string
	flagLogJSON  bool
	flagProfiles string
	flagPrinter  string
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false,
		"emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&flagProfiles, "profiles", "",
		"YAML file with printer/capacitor profiles overriding the built-ins")
	rootCmd.PersistentFlags().StringVar(&flagPrinter, "printer", "pva",
		"printer profile name")
}

// loadProfiles resolves the printer profile named by --printer, merging
// the optional --profiles file over the built-ins.
func loadProfiles() (*profile.File, profile.Printer, error) {
	var file *profile.File
	if flagProfiles != "" {
		f, err := profile.LoadFile(flagProfiles)
		if err != nil {
			return nil, profile.Printer{}, err
		}
		file = f
	} else {
		file = &profile.File{}
	}
	prn, err := file.Printer(flagPrinter)
	if err != nil {
		return nil, profile.Printer{}, err
	}
	return file, prn, nil
}
