package main

import (
	"os"

	"github.com/wlmr-rk/proj-nexus/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
