package main

import (
	"os"

	"github.com/tormodhaugland/planner/cmd/planner/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
