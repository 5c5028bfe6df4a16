// Package main is the entry point for the riftlens CLI, which collects
// League of Legends ranked matches, trains per-role performance models and
// produces per-player insight reports.
package main

import "github.com/pable/riftlens/cmd"

func main() {
	cmd.Execute()
}
