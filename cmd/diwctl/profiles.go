// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mita3055/diwctl/pkg/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the available printer and capacitor profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _, err := loadProfiles()
		if err != nil {
			return err
		}
		fmt.Println("printers:")
		for _, name := range profile.PrinterNames() {
			p, _ := file.Printer(name)
			fmt.Printf("  %-16s extrusion=%.3f feed=%g height=%.2f\n",
				name, p.ExtrusionRate, p.FeedRate, p.PrintHeight)
		}
		fmt.Println("capacitors:")
		for _, name := range profile.CapacitorNames() {
			c, _ := file.Capacitor(name)
			fmt.Printf("  %-16s stem=%g arm=%g arms=%d\n",
				name, c.StemLen, c.ArmLen, c.ArmCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
