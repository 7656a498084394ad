// Package main is the entry point for the foodshare CLI application.
// It is a terminal client for the Foodshare food-donation marketplace.
package main

import (
	"foodshare/cli/cmd"
)

// main is the entry point for the foodshare CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
