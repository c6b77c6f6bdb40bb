// Package main is the entry point for the missionctl CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "missionctl:", err)
		os.Exit(1)
	}
}
