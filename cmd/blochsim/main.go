// Package main is blochsim, an offline runner for circuit files. It replays a
// circuit saved as YAML or JSON and prints the per-qubit state at a step.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
