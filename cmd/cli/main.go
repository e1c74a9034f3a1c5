package main

import (
	"fmt"
	"os"

	// Import init package first to set up logging defaults before
	// anything else initializes
	_ "github.com/beam-cloud/satchel/internal/init"

	"github.com/beam-cloud/satchel/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
