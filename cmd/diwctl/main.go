// Copyright (C) 2026 DIW Printer Project
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

func main() {
	Execute()
}
