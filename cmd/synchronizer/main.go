// Package main is the entry point for the serving-config synchronizer binary.
package main

import (
	"fmt"
	"os"

	"github.com/vitaliisemenov/modelfleet/cmd/synchronizer/cmd"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cmd.SetVersion(version, buildTime, gitCommit)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
