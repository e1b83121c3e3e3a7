package main

import (
	"fmt"
	"os"

	"github.com/eringen/blogform"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cfg, err := blogform.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(&cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
