// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mita3055/diwctl/pkg/klipper"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Probe the motion controller and report its state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := klipper.NewClient(klipper.Config{
			BaseURL:     connectFlags.moonraker,
			HTTPTimeout: 5 * time.Second,
		})
		cs, err := client.Connect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("reachable:      %v\n", cs.Reachable)
		fmt.Printf("info available: %v\n", cs.InfoAvailable)
		fmt.Printf("state:          %s\n", cs.State)
		fmt.Printf("usable:         %v\n", cs.Usable())

		if cs.Usable() {
			if pos, err := client.Position(cmd.Context()); err == nil {
				fmt.Printf("position:       X%.3f Y%.3f Z%.3f E%.3f\n",
					pos[0], pos[1], pos[2], pos[3])
			}
			if axes, err := client.HomedAxes(cmd.Context()); err == nil {
				if axes == "" {
					axes = "(none)"
				}
				fmt.Printf("homed axes:     %s\n", axes)
			}
		}
		return nil
	},
}

var connectFlags struct {
	moonraker string
}

func init() {
	connectCmd.Flags().StringVar(&connectFlags.moonraker, "moonraker",
		"http://localhost:7125", "Moonraker base URL")
	rootCmd.AddCommand(connectCmd)
}
